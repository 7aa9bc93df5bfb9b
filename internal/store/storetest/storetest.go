// Package storetest is a conformance suite every store.Store implementation runs in its tests.
// Records are created with fresh ids and emails, so the suite tolerates a shared, pre-seeded database.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
)

// Run executes every conformance test against s
func Run(t *testing.T, s store.Store) {
	t.Run("UserLifecycle", func(t *testing.T) { testUserLifecycle(t, s) })
	t.Run("UniqueEmail", func(t *testing.T) { testUniqueEmail(t, s) })
	t.Run("ProjectFilters", func(t *testing.T) { testProjectFilters(t, s) })
	t.Run("SaveProjectKeepsOwner", func(t *testing.T) { testSaveProjectKeepsOwner(t, s) })
	t.Run("AcceptedJuniorsIsSet", func(t *testing.T) { testAcceptedJuniorsIsSet(t, s) })
	t.Run("UniqueApplication", func(t *testing.T) { testUniqueApplication(t, s) })
	t.Run("ApplicationStatusAndDelete", func(t *testing.T) { testApplicationStatusAndDelete(t, s) })
	t.Run("CascadeInTransaction", func(t *testing.T) { testCascadeInTransaction(t, s) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, s) })
}

// NewUser returns an unsaved user with a unique email
func NewUser(role string) *model.User {
	id := uuid.New()
	return &model.User{
		Name:     "user " + id.String()[:8],
		Email:    fmt.Sprintf("%s@example.com", id.String()),
		Password: "hash",
		Role:     role,
		Skills:   pq.StringArray{"go"},
	}
}

// NewProject returns an unsaved open project owned by seniorID
func NewProject(seniorID uuid.UUID) *model.Project {
	return &model.Project{
		Title:          "project",
		Description:    "description",
		RequiredSkills: pq.StringArray{"go", "sql"},
		Duration:       "2 weeks",
		Difficulty:     model.DifficultyIntermediate,
		SeniorID:       seniorID,
		Status:         model.ProjectStatusOpen,
	}
}

// NewApplication returns an unsaved pending application
func NewApplication(projectID, juniorID uuid.UUID) *model.Application {
	return &model.Application{
		ProjectID:   projectID,
		JuniorID:    juniorID,
		CoverLetter: "let me in",
		ResumePath:  "uploads/resumes/1-cv.pdf",
		Status:      model.ApplicationStatusPending,
		AppliedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func mustCreateUser(t *testing.T, s store.Store, role string) *model.User {
	t.Helper()
	u := NewUser(role)
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustCreateProject(t *testing.T, s store.Store, seniorID uuid.UUID) *model.Project {
	t.Helper()
	p := NewProject(seniorID)
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func testUserLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, model.RoleJunior)
	assert.NotEqual(t, uuid.Nil, u.ID)

	byEmail, err := s.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, []string{"go"}, []string(byEmail.Skills))

	otp := "123456"
	exp := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Millisecond)
	byEmail.Name = "renamed"
	byEmail.VerificationOTP = &otp
	byEmail.VerificationExpires = &exp
	require.NoError(t, s.SaveUser(ctx, byEmail))

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", byID.Name)
	require.NotNil(t, byID.VerificationOTP)
	assert.Equal(t, otp, *byID.VerificationOTP)
	require.NotNil(t, byID.VerificationExpires)
	assert.WithinDuration(t, exp, *byID.VerificationExpires, time.Millisecond)

	byID.VerificationOTP = nil
	byID.VerificationExpires = nil
	byID.IsVerified = true
	require.NoError(t, s.SaveUser(ctx, byID))

	again, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, again.IsVerified)
	assert.Nil(t, again.VerificationOTP)

	other := mustCreateUser(t, s, model.RoleSenior)
	users, err := s.ListUsersByIDs(ctx, []uuid.UUID{u.ID, other.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	empty, err := s.ListUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testUniqueEmail(t *testing.T, s store.Store) {
	u := mustCreateUser(t, s, model.RoleJunior)
	dup := NewUser(model.RoleSenior)
	dup.Email = u.Email

	err := s.CreateUser(context.Background(), dup)
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func testProjectFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	senior := mustCreateUser(t, s, model.RoleSenior)
	junior := mustCreateUser(t, s, model.RoleJunior)

	open := mustCreateProject(t, s, senior.ID)
	closed := NewProject(senior.ID)
	closed.Status = model.ProjectStatusClosed
	require.NoError(t, s.CreateProject(ctx, closed))
	require.NoError(t, s.AddAcceptedJunior(ctx, closed.ID, junior.ID))

	mine, err := s.ListProjects(ctx, store.ProjectFilter{SeniorID: &senior.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, closed.ID, mine[0].ID, "newest first")
	assert.Equal(t, open.ID, mine[1].ID)

	status := model.ProjectStatusClosed
	active, err := s.ListProjects(ctx, store.ProjectFilter{SeniorID: &senior.ID, Status: &status})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, closed.ID, active[0].ID)

	joined, err := s.ListProjects(ctx, store.ProjectFilter{AcceptedJunior: &junior.ID})
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, closed.ID, joined[0].ID)

	openStatus := model.ProjectStatusOpen
	public, err := s.ListProjects(ctx, store.ProjectFilter{Status: &openStatus})
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(public))
	for _, p := range public {
		assert.Equal(t, model.ProjectStatusOpen, p.Status)
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, open.ID)
	assert.NotContains(t, ids, closed.ID)
}

func testSaveProjectKeepsOwner(t *testing.T, s store.Store) {
	ctx := context.Background()
	senior := mustCreateUser(t, s, model.RoleSenior)
	junior := mustCreateUser(t, s, model.RoleJunior)
	p := mustCreateProject(t, s, senior.ID)
	require.NoError(t, s.AddAcceptedJunior(ctx, p.ID, junior.ID))

	stale := *p
	stale.Title = "new title"
	stale.Status = model.ProjectStatusCompleted
	stale.SeniorID = uuid.New()
	stale.AcceptedJuniors = pq.StringArray{}
	require.NoError(t, s.SaveProject(ctx, &stale))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, model.ProjectStatusCompleted, got.Status)
	assert.Equal(t, senior.ID, got.SeniorID)
	assert.True(t, got.HasAcceptedJunior(junior.ID))
}

func testAcceptedJuniorsIsSet(t *testing.T, s store.Store) {
	ctx := context.Background()
	senior := mustCreateUser(t, s, model.RoleSenior)
	junior := mustCreateUser(t, s, model.RoleJunior)
	p := mustCreateProject(t, s, senior.ID)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddAcceptedJunior(ctx, p.ID, junior.ID))
	}

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{junior.ID.String()}, []string(got.AcceptedJuniors))

	err = s.AddAcceptedJunior(ctx, uuid.New(), junior.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUniqueApplication(t *testing.T, s store.Store) {
	ctx := context.Background()
	senior := mustCreateUser(t, s, model.RoleSenior)
	junior := mustCreateUser(t, s, model.RoleJunior)
	p := mustCreateProject(t, s, senior.ID)

	first := NewApplication(p.ID, junior.ID)
	require.NoError(t, s.CreateApplication(ctx, first))

	second := NewApplication(p.ID, junior.ID)
	second.CoverLetter = "again"
	assert.ErrorIs(t, s.CreateApplication(ctx, second), store.ErrDuplicate)

	found, err := s.FindApplication(ctx, p.ID, junior.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "let me in", found.CoverLetter)
}

func testApplicationStatusAndDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	senior := mustCreateUser(t, s, model.RoleSenior)
	junior := mustCreateUser(t, s, model.RoleJunior)
	p := mustCreateProject(t, s, senior.ID)

	app := NewApplication(p.ID, junior.ID)
	require.NoError(t, s.CreateApplication(ctx, app))
	require.NoError(t, s.UpdateApplicationStatus(ctx, app.ID, model.ApplicationStatusReviewing))

	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusReviewing, got.Status)
	assert.WithinDuration(t, app.AppliedAt, got.AppliedAt, time.Millisecond)

	mine, err := s.ListApplications(ctx, store.ApplicationFilter{JuniorID: &junior.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, s.DeleteApplication(ctx, app.ID))
	_, err = s.GetApplication(ctx, app.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteApplication(ctx, app.ID), store.ErrNotFound)
}

func testCascadeInTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	senior := mustCreateUser(t, s, model.RoleSenior)
	p := mustCreateProject(t, s, senior.ID)
	for i := 0; i < 3; i++ {
		junior := mustCreateUser(t, s, model.RoleJunior)
		require.NoError(t, s.CreateApplication(ctx, NewApplication(p.ID, junior.ID)))
	}

	var deleted int64
	err := s.Transaction(ctx, func(tx store.Store) error {
		n, err := tx.DeleteApplicationsByProject(ctx, p.ID)
		if err != nil {
			return err
		}
		deleted = n
		return tx.DeleteProject(ctx, p.ID)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	left, err := s.ListApplications(ctx, store.ApplicationFilter{ProjectID: &p.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	missing := uuid.New()

	_, err := s.GetUserByID(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, missing.String()+"@nowhere.test")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetProject(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetApplication(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindApplication(ctx, missing, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, missing), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateApplicationStatus(ctx, missing, model.ApplicationStatusAccepted), store.ErrNotFound)

	ghost := NewUser(model.RoleJunior)
	ghost.ID = missing
	assert.ErrorIs(t, s.SaveUser(ctx, ghost), store.ErrNotFound)
}
