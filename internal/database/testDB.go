package database

import (
	"context"
	"sync"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	m "SeniorJunior-backend/internal/model"
)

// Teardown stops a test container
type Teardown func(context.Context) error

// Seed records inserted by GetTestDB. They are filled once the container is up.
var (
	TestSenior      m.User
	TestJunior      m.User
	TestProjectOpen m.Project

	// TestSeedPassword is the plain password of both seeded users
	TestSeedPassword = "SeedPass123!"
)

const (
	testDBName = "collab_test"
	testDBUser = "collab"
	testDBPwd  = "collab-pass"
)

var (
	testDBOnce     sync.Once
	testDBInstance *DBinstanceStruct
	testDBStop     Teardown
	testDBErr      error
)

// GetTestDB starts one postgres 16 container per test binary, migrates and seeds it.
// Later calls return the same instance.
func GetTestDB() (Teardown, *DBinstanceStruct, error) {
	testDBOnce.Do(func() {
		testDBStop, testDBInstance, testDBErr = startTestDB(context.Background())
	})
	return testDBStop, testDBInstance, testDBErr
}

func startTestDB(ctx context.Context) (Teardown, *DBinstanceStruct, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (Teardown, *DBinstanceStruct, error) {
		_ = container.Terminate(context.Background())
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return fail(err)
	}
	port, err := container.MappedPort(ctx, nat.Port("5432/tcp"))
	if err != nil {
		return fail(err)
	}

	db, err := NewDBInstance(&DBConfig{
		Host:         host,
		Port:         port.Port(),
		User:         testDBUser,
		Password:     testDBPwd,
		DBName:       testDBName,
		MaxOpenConns: 10,
	}, zap.NewNop())
	if err != nil {
		return fail(err)
	}
	if err := seedTestData(db); err != nil {
		_ = db.Close()
		return fail(err)
	}
	return container.Terminate, db, nil
}

// seedTestData inserts one verified senior, one verified junior and an open project
func seedTestData(db *DBinstanceStruct) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(TestSeedPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}

	TestSenior = m.User{
		ID:                uuid.New(),
		Name:              "Seed Senior",
		Email:             "seed.senior@example.com",
		Password:          string(hashed),
		Role:              m.RoleSenior,
		Skills:            pq.StringArray{"go", "postgres"},
		ProjectsCompleted: 12,
		IsVerified:        true,
	}
	TestJunior = m.User{
		ID:         uuid.New(),
		Name:       "Seed Junior",
		Email:      "seed.junior@example.com",
		Password:   string(hashed),
		Role:       m.RoleJunior,
		Skills:     pq.StringArray{"javascript"},
		IsVerified: true,
	}
	TestProjectOpen = m.Project{
		ID:              uuid.New(),
		Title:           "Seed project",
		Description:     "Project seeded for tests",
		RequiredSkills:  pq.StringArray{"go"},
		Duration:        "4 weeks",
		Difficulty:      m.DifficultyBeginner,
		SeniorID:        TestSenior.ID,
		Status:          m.ProjectStatusOpen,
		AcceptedJuniors: pq.StringArray{},
	}

	tx := db.Begin()
	if err := tx.Create(&[]*m.User{&TestSenior, &TestJunior}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Create(&TestProjectOpen).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
