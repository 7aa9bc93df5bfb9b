package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"SeniorJunior-backend/internal/mailer"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store/memstore"
)

type fakeTokens struct{}

func (fakeTokens) Issue(user *model.User) (string, error) {
	return "token-" + user.ID.String(), nil
}

// recordingRemover records deleted paths and fails the first failures calls
type recordingRemover struct {
	mu       sync.Mutex
	deleted  []string
	calls    int
	failures int
}

func (r *recordingRemover) Delete(ctx context.Context, p string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.failures {
		return errors.New("storage unavailable")
	}
	r.deleted = append(r.deleted, p)
	return nil
}

func (r *recordingRemover) Deleted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

type fixture struct {
	deps    Deps
	store   *memstore.Store
	mail    *mailer.Recorder
	removed *recordingRemover
	now     time.Time

	auth *AuthService
	proj *ProjectService
	apps *ApplicationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memstore.New(),
		mail:    &mailer.Recorder{},
		removed: &recordingRemover{},
		now:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	log := zaptest.NewLogger(t)
	cleaner := NewFileCleaner(f.removed, log, CleanerOptions{})
	cleaner.sleep = func(time.Duration) {}
	f.deps = Deps{
		Store:   f.store,
		Mailer:  f.mail,
		Tokens:  fakeTokens{},
		Cleaner: cleaner,
		Log:     log,
		Now:     func() time.Time { return f.now },
	}
	f.auth = NewAuthService(f.deps)
	f.proj = NewProjectService(f.deps)
	f.apps = NewApplicationService(f.deps)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// lastCode returns the code of the newest email
func (f *fixture) lastCode(t *testing.T) string {
	t.Helper()
	msg, ok := f.mail.Last()
	require.True(t, ok, "no email sent")
	code := codePattern.FindString(msg.Body)
	require.NotEmpty(t, code)
	return code
}

// verifiedUser registers and verifies an account
func (f *fixture) verifiedUser(t *testing.T, email, role string, projects int) *model.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.auth.Register(ctx, RegisterInput{
		Name:              "User " + role,
		Email:             email,
		Password:          "password123",
		UserType:          role,
		Skills:            "go, sql",
		ProjectsCompleted: projects,
	}))
	_, err := f.auth.VerifyEmail(ctx, email, f.lastCode(t))
	require.NoError(t, err)
	u, err := f.store.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	return u
}

func (f *fixture) senior(t *testing.T) *model.User {
	return f.verifiedUser(t, "senior@example.com", model.RoleSenior, 10)
}

func (f *fixture) junior(t *testing.T, email string) *model.User {
	return f.verifiedUser(t, email, model.RoleJunior, 0)
}

func (f *fixture) openProject(t *testing.T, senior *model.User) *model.Project {
	t.Helper()
	p, err := f.proj.Create(context.Background(), senior.ID, CreateProjectInput{
		Title:          "Chat app",
		Description:    "Realtime chat",
		RequiredSkills: []string{"go", "websocket"},
		Duration:       "4 weeks",
		Difficulty:     model.DifficultyIntermediate,
	})
	require.NoError(t, err)
	return p
}
