package database

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/model"
)

var testDB *DBinstanceStruct

func TestMain(m *testing.M) {
	teardown, db, err := GetTestDB()
	if err != nil {
		log.Printf("could not start postgres container: %v", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

func TestHealth(t *testing.T) {
	stats := testDB.Health()

	assert.Equal(t, "up", stats["status"])
	_, hasErr := stats["error"]
	assert.False(t, hasErr)
	assert.Equal(t, "It's healthy", stats["message"])
}

func TestSeedData(t *testing.T) {
	var senior model.User
	require.NoError(t, testDB.Where("email = ?", TestSenior.Email).First(&senior).Error)
	assert.Equal(t, model.RoleSenior, senior.Role)
	assert.True(t, senior.IsVerified)

	var project model.Project
	require.NoError(t, testDB.First(&project, "id = ?", TestProjectOpen.ID).Error)
	assert.Equal(t, TestSenior.ID, project.SeniorID)
	assert.Empty(t, project.AcceptedJuniors)
}

func TestEmailUniqueIndex(t *testing.T) {
	dup := TestJunior
	dup.ID = uuid.New()
	err := testDB.Create(&dup).Error
	assert.Error(t, err)
}

func TestIncompleteConfig(t *testing.T) {
	_, err := NewDBInstance(&DBConfig{Host: "localhost"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewDBInstance(&DBConfig{UseConstr: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	db, err := NewDBInstance(testDB.Config, zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, db.Close())
}

func TestGetDsn(t *testing.T) {
	cfg := &DBConfig{Host: "db", Port: "5432", User: "app", Password: "p@ss/word", DBName: "collab"}
	dsn, err := cfg.getDsn()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/collab?sslmode=disable", dsn)

	cfg.SSLMode = "require"
	dsn, err = cfg.getDsn()
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=require")

	dsn, err = (&DBConfig{UseConstr: true, Constr: "postgres://x"}).getDsn()
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", dsn)
}

func TestPoolMessage(t *testing.T) {
	assert.Equal(t, "It's healthy", poolMessage(sql.DBStats{OpenConnections: 3}))
	assert.Equal(t, "The database is experiencing heavy load.", poolMessage(sql.DBStats{OpenConnections: 41}))
	assert.Contains(t, poolMessage(sql.DBStats{OpenConnections: 2, WaitCount: 1001}), "wait events")
	assert.Contains(t, poolMessage(sql.DBStats{OpenConnections: 2, MaxIdleClosed: 5}), "idle connections")
}

func TestTeardownFitsContainers(t *testing.T) {
	generic := func(c testcontainers.Container) Teardown { return c.Terminate }
	pg := func(c *postgres.PostgresContainer) Teardown { return c.Terminate }
	assert.NotNil(t, generic)
	assert.NotNil(t, pg)

	stop, _, err := GetTestDB()
	require.NoError(t, err)
	assert.NotNil(t, stop)
}
