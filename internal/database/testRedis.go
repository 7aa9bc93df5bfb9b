package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// GetTestRedis starts a redis container and returns a connected client with its teardown
func GetTestRedis() (Teardown, *redis.Client, error) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container.Terminate, nil, err
	}
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		return container.Terminate, nil, err
	}

	rdb, err := ConnectRedis(ctx, RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())}, zap.NewNop())
	if err != nil {
		return container.Terminate, nil, err
	}
	return container.Terminate, rdb, nil
}
