package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
)

func apply(t *testing.T, f *fixture, junior *model.User, p *model.Project) *model.Application {
	t.Helper()
	app, err := f.apps.Apply(context.Background(), junior.ID, ApplyInput{
		ProjectID:    p.ID.String(),
		CoverLetter:  "I would love to help",
		PortfolioURL: "https://example.com/me",
		ResumePath:   "uploads/resumes/" + junior.ID.String() + ".pdf",
	})
	require.NoError(t, err)
	return app
}

func TestApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	j := f.junior(t, "j@example.com")
	p := f.openProject(t, s)

	app := apply(t, f, j, p)
	assert.Equal(t, model.ApplicationStatusPending, app.Status)
	assert.Equal(t, f.now, app.AppliedAt)

	_, err := f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: p.ID.String(), CoverLetter: "again", ResumePath: "uploads/resumes/2.pdf"})
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.EqualError(t, err, "Already applied to this project")

	stored, err := f.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.CoverLetter, stored.CoverLetter, "first application unchanged")
}

func TestApply_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	j := f.junior(t, "j@example.com")
	p := f.openProject(t, s)

	_, err := f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: p.ID.String(), CoverLetter: "hi"})
	assert.ErrorIs(t, err, ErrResumeRequired)

	_, err = f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: p.ID.String(), ResumePath: "uploads/resumes/x.pdf"})
	assert.EqualError(t, err, "coverLetter is required")

	_, err = f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: "nope", CoverLetter: "hi", ResumePath: "uploads/resumes/x.pdf"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: uuid.NewString(), CoverLetter: "hi", ResumePath: "uploads/resumes/x.pdf"})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	closed := model.ProjectStatusClosed
	_, err = f.proj.Update(ctx, s.ID, p.ID, UpdateProjectInput{Status: &closed})
	require.NoError(t, err)
	_, err = f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: p.ID.String(), CoverLetter: "hi", ResumePath: "uploads/resumes/x.pdf"})
	assert.ErrorIs(t, err, ErrProjectNotOpen)
}

func TestApplicationListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	j := f.junior(t, "j@example.com")
	p := f.openProject(t, s)
	apply(t, f, j, p)

	mine, err := f.apps.ListMine(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.Title, mine[0].Project.Title)

	forProject, err := f.apps.ListForProject(ctx, s.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, forProject, 1)
	assert.Equal(t, j.Name, forProject[0].Applicant.Name)
	assert.Equal(t, j.Email, forProject[0].Applicant.Email)
	assert.Equal(t, []string{"go", "sql"}, forProject[0].Applicant.Skills)

	other := f.verifiedUser(t, "other@example.com", model.RoleSenior, 8)
	_, err = f.apps.ListForProject(ctx, other.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotProjectOwner)
	_, err = f.apps.ListForProject(ctx, s.ID, uuid.New())
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{"pending", "reviewing"},
		{"pending", "accepted"},
		{"pending", "rejected"},
		{"reviewing", "accepted"},
		{"reviewing", "rejected"},
		{"accepted", "accepted"},
		{"pending", "pending"},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), tr)
	}
	denied := [][2]string{
		{"reviewing", "pending"},
		{"accepted", "rejected"},
		{"rejected", "accepted"},
		{"accepted", "pending"},
		{"rejected", "reviewing"},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), tr)
	}
}

func TestUpdateStatus_AcceptAddsJuniorOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	j := f.junior(t, "j@example.com")
	p := f.openProject(t, s)
	app := apply(t, f, j, p)

	updated, err := f.apps.UpdateStatus(ctx, s.ID, app.ID, model.ApplicationStatusReviewing)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusReviewing, updated.Status)

	for i := 0; i < 2; i++ {
		updated, err = f.apps.UpdateStatus(ctx, s.ID, app.ID, model.ApplicationStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, model.ApplicationStatusAccepted, updated.Status)
	}

	stored, err := f.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{j.ID.String()}, []string(stored.AcceptedJuniors))

	_, err = f.apps.UpdateStatus(ctx, s.ID, app.ID, model.ApplicationStatusRejected)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdateStatus_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	j := f.junior(t, "j@example.com")
	p := f.openProject(t, s)
	app := apply(t, f, j, p)

	other := f.verifiedUser(t, "other@example.com", model.RoleSenior, 9)
	_, err := f.apps.UpdateStatus(ctx, other.ID, app.ID, model.ApplicationStatusAccepted)
	assert.ErrorIs(t, err, ErrNotProjectOwner)
	stored, _ := f.store.GetApplication(ctx, app.ID)
	assert.Equal(t, model.ApplicationStatusPending, stored.Status, "status unchanged")
	proj, _ := f.store.GetProject(ctx, p.ID)
	assert.Empty(t, proj.AcceptedJuniors)

	_, err = f.apps.UpdateStatus(ctx, s.ID, app.ID, "hired")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.apps.UpdateStatus(ctx, s.ID, uuid.New(), model.ApplicationStatusAccepted)
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = f.apps.UpdateStatus(ctx, s.ID, app.ID, model.ApplicationStatusReviewing)
	require.NoError(t, err)
	_, err = f.apps.UpdateStatus(ctx, s.ID, app.ID, model.ApplicationStatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestWithdraw_Window(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	p := f.openProject(t, s)

	onTime := f.junior(t, "ontime@example.com")
	late := f.junior(t, "late@example.com")
	a1 := apply(t, f, onTime, p)
	a2 := apply(t, f, late, p)

	f.advance(24 * time.Hour)
	require.NoError(t, f.apps.Withdraw(ctx, onTime.ID, a1.ID), "boundary is inclusive")
	_, err := f.store.GetApplication(ctx, a1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []string{a1.ResumePath}, f.removed.Deleted())

	f.advance(time.Millisecond)
	assert.ErrorIs(t, f.apps.Withdraw(ctx, late.ID, a2.ID), ErrWithdrawWindowPassed)
	_, err = f.store.GetApplication(ctx, a2.ID)
	assert.NoError(t, err)
}

func TestWithdraw_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	p := f.openProject(t, s)
	j := f.junior(t, "j@example.com")
	intruder := f.junior(t, "x@example.com")
	app := apply(t, f, j, p)

	assert.ErrorIs(t, f.apps.Withdraw(ctx, intruder.ID, app.ID), ErrNotApplicant)
	assert.ErrorIs(t, f.apps.Withdraw(ctx, j.ID, uuid.New()), ErrApplicationNotFound)

	_, err := f.apps.UpdateStatus(ctx, s.ID, app.ID, model.ApplicationStatusReviewing)
	require.NoError(t, err)
	assert.ErrorIs(t, f.apps.Withdraw(ctx, j.ID, app.ID), ErrWithdrawNotPending)
	assert.Empty(t, f.removed.Deleted())
}
