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

func TestProjectCreate(t *testing.T) {
	f := newFixture(t)
	s := f.senior(t)

	p := f.openProject(t, s)
	assert.Equal(t, model.ProjectStatusOpen, p.Status)
	assert.Equal(t, s.ID, p.SeniorID)
	assert.Empty(t, p.AcceptedJuniors)

	_, err := f.proj.Create(context.Background(), s.ID, CreateProjectInput{
		Title: "x", Description: "y", RequiredSkills: []string{"go"}, Duration: "1w", Difficulty: "Expert",
	})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.proj.Create(context.Background(), s.ID, CreateProjectInput{
		Title: "x", Description: "y", Duration: "1w", Difficulty: model.DifficultyBeginner,
	})
	assert.Equal(t, KindValidation, KindOf(err), "skills are required")
}

func TestProjectListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	j := f.junior(t, "j@example.com")

	open := f.openProject(t, s)
	closed := f.openProject(t, s)
	status := model.ProjectStatusClosed
	_, err := f.proj.Update(ctx, s.ID, closed.ID, UpdateProjectInput{Status: &status})
	require.NoError(t, err)
	require.NoError(t, f.store.AddAcceptedJunior(ctx, closed.ID, j.ID))

	public, err := f.proj.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, open.ID, public[0].ID)
	assert.Equal(t, s.Name, public[0].Senior.Name)
	assert.Empty(t, public[0].Senior.Email, "owner email is not public")

	mine, err := f.proj.ListMine(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	active, err := f.proj.ListActive(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, closed.ID, active[0].ID)
	require.Len(t, active[0].Juniors, 1)
	assert.Equal(t, j.Email, active[0].Juniors[0].Email)

	forJunior, err := f.proj.ListForJunior(ctx, j.ID)
	require.NoError(t, err)
	require.Len(t, forJunior, 1)
	assert.Equal(t, closed.ID, forJunior[0].ID)
}

func TestProjectUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	p := f.openProject(t, s)

	title := "Renamed"
	completed := model.ProjectStatusCompleted
	updated, err := f.proj.Update(ctx, s.ID, p.ID, UpdateProjectInput{Title: &title, Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.ProjectStatusCompleted, updated.Status)
	assert.Equal(t, p.Description, updated.Description)

	// status is a free patch within the enum
	open := model.ProjectStatusOpen
	updated, err = f.proj.Update(ctx, s.ID, p.ID, UpdateProjectInput{Status: &open})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusOpen, updated.Status)

	bogus := "archived"
	_, err = f.proj.Update(ctx, s.ID, p.ID, UpdateProjectInput{Status: &bogus})
	assert.Equal(t, KindValidation, KindOf(err))

	for _, skills := range [][]string{{}, {"go", ""}} {
		skills := skills
		_, err = f.proj.Update(ctx, s.ID, p.ID, UpdateProjectInput{RequiredSkills: &skills})
		assert.Equal(t, KindValidation, KindOf(err), "%q", skills)
	}
	reloaded, err := f.proj.Update(ctx, s.ID, p.ID, UpdateProjectInput{})
	require.NoError(t, err)
	assert.Equal(t, p.RequiredSkills, reloaded.RequiredSkills)

	other := f.verifiedUser(t, "other@example.com", model.RoleSenior, 7)
	_, err = f.proj.Update(ctx, other.ID, p.ID, UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotProjectOwner)

	_, err = f.proj.Update(ctx, s.ID, uuid.New(), UpdateProjectInput{Title: &title})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.senior(t)
	p := f.openProject(t, s)
	keep := f.openProject(t, s)

	var resumes []string
	for _, email := range []string{"a@example.com", "b@example.com"} {
		j := f.junior(t, email)
		resume := "uploads/resumes/" + email + ".pdf"
		resumes = append(resumes, resume)
		_, err := f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: p.ID.String(), CoverLetter: "hi", ResumePath: resume})
		require.NoError(t, err)
		_, err = f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: keep.ID.String(), CoverLetter: "hi", ResumePath: resume + ".keep"})
		require.NoError(t, err)
	}

	other := f.verifiedUser(t, "other@example.com", model.RoleSenior, 7)
	assert.ErrorIs(t, f.proj.Delete(ctx, other.ID, p.ID), ErrNotProjectOwner)

	require.NoError(t, f.proj.Delete(ctx, s.ID, p.ID))

	_, err := f.store.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	left, err := f.store.ListApplications(ctx, store.ApplicationFilter{ProjectID: &p.ID})
	require.NoError(t, err)
	assert.Empty(t, left)
	kept, err := f.store.ListApplications(ctx, store.ApplicationFilter{ProjectID: &keep.ID})
	require.NoError(t, err)
	assert.Len(t, kept, 2)

	assert.ElementsMatch(t, resumes, f.removed.Deleted())

	assert.ErrorIs(t, f.proj.Delete(ctx, s.ID, p.ID), ErrProjectNotFound)
}

func TestProjectDeleteWithRunningCleaner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.deps.Cleaner.Start()
	s := f.senior(t)
	p := f.openProject(t, s)
	j := f.junior(t, "a@example.com")
	_, err := f.apps.Apply(ctx, j.ID, ApplyInput{ProjectID: p.ID.String(), CoverLetter: "hi", ResumePath: "uploads/resumes/1.pdf"})
	require.NoError(t, err)

	require.NoError(t, f.proj.Delete(ctx, s.ID, p.ID))
	f.deps.Cleaner.Stop()

	assert.Eventually(t, func() bool {
		return len(f.removed.Deleted()) == 1
	}, time.Second, 10*time.Millisecond)
}
