package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeniorJunior-backend/internal/database"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
	"SeniorJunior-backend/internal/store/storetest"
)

var testStore *Store

func TestMain(m *testing.M) {
	teardown, db, err := database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	testStore = New(db)

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

func TestConformance(t *testing.T) {
	storetest.Run(t, testStore)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	senior := storetest.NewUser(model.RoleSenior)
	require.NoError(t, testStore.CreateUser(ctx, senior))
	project := storetest.NewProject(senior.ID)
	require.NoError(t, testStore.CreateProject(ctx, project))

	boom := errors.New("boom")
	err := testStore.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeleteProject(ctx, project.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = testStore.GetProject(ctx, project.ID)
	assert.NoError(t, err, "delete must be rolled back")
}

func TestSeededProjectVisible(t *testing.T) {
	status := model.ProjectStatusOpen
	projects, err := testStore.ListProjects(context.Background(), store.ProjectFilter{
		Status:   &status,
		SeniorID: &database.TestSenior.ID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, projects)
	assert.Equal(t, database.TestProjectOpen.ID, projects[len(projects)-1].ID)
}

func TestHealth(t *testing.T) {
	assert.Equal(t, "up", testStore.Health()["status"])
}
