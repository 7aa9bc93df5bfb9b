// Package memstore is an in-process store.Store used by unit tests and local runs
// without a database.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
)

// Store keeps every record in maps guarded by one mutex
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]model.User
	projects     map[uuid.UUID]model.Project
	applications map[uuid.UUID]model.Application
	now          func() time.Time
	last         time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		users:        map[uuid.UUID]model.User{},
		projects:     map[uuid.UUID]model.Project{},
		applications: map[uuid.UUID]model.Application{},
		now:          time.Now,
	}
}

// Transaction runs fn directly. Each call is individually atomic, there is no rollback.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Health implements store.Store
func (s *Store) Health() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
		"driver":  "memory",
	}
}

// stamp returns a strictly increasing time so listings have a stable order.
// Callers hold the write lock.
func (s *Store) stamp() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Close implements store.Store
func (s *Store) Close() error { return nil }

func cloneUser(u model.User) model.User {
	u.Skills = append(pq.StringArray(nil), u.Skills...)
	return u
}

func cloneProject(p model.Project) model.Project {
	p.RequiredSkills = append(pq.StringArray(nil), p.RequiredSkills...)
	p.AcceptedJuniors = append(pq.StringArray{}, p.AcceptedJuniors...)
	return p
}

// CreateUser implements store.UserStore
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return store.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.stamp()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = cloneUser(*user)
	return nil
}

// GetUserByID implements store.UserStore
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

// GetUserByEmail implements store.UserStore
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

// SaveUser implements store.UserStore
func (s *Store) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, u := range s.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return store.ErrDuplicate
		}
	}
	user.CreatedAt = old.CreatedAt
	user.UpdatedAt = s.stamp()
	s.users[user.ID] = cloneUser(*user)
	return nil
}

// ListUsersByIDs implements store.UserStore
func (s *Store) ListUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []model.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

// CreateProject implements store.ProjectStore
func (s *Store) CreateProject(ctx context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.AcceptedJuniors == nil {
		project.AcceptedJuniors = pq.StringArray{}
	}
	now := s.stamp()
	project.CreatedAt, project.UpdatedAt = now, now
	s.projects[project.ID] = cloneProject(*project)
	return nil
}

// GetProject implements store.ProjectStore
func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = cloneProject(p)
	return &p, nil
}

// ListProjects implements store.ProjectStore
func (s *Store) ListProjects(ctx context.Context, filter store.ProjectFilter) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := []model.Project{}
	for _, p := range s.projects {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.SeniorID != nil && p.SeniorID != *filter.SeniorID {
			continue
		}
		if filter.AcceptedJunior != nil && !p.HasAcceptedJunior(*filter.AcceptedJunior) {
			continue
		}
		projects = append(projects, cloneProject(p))
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

// SaveProject implements store.ProjectStore
func (s *Store) SaveProject(ctx context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.projects[project.ID]
	if !ok {
		return store.ErrNotFound
	}
	project.SeniorID = old.SeniorID
	project.AcceptedJuniors = append(pq.StringArray{}, old.AcceptedJuniors...)
	project.CreatedAt = old.CreatedAt
	project.UpdatedAt = s.stamp()
	s.projects[project.ID] = cloneProject(*project)
	return nil
}

// AddAcceptedJunior implements store.ProjectStore
func (s *Store) AddAcceptedJunior(ctx context.Context, projectID, juniorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	if p.HasAcceptedJunior(juniorID) {
		return nil
	}
	p = cloneProject(p)
	p.AcceptedJuniors = append(p.AcceptedJuniors, juniorID.String())
	p.UpdatedAt = s.stamp()
	s.projects[projectID] = p
	return nil
}

// DeleteProject implements store.ProjectStore
func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// CreateApplication implements store.ApplicationStore
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.applications {
		if a.ProjectID == app.ProjectID && a.JuniorID == app.JuniorID {
			return store.ErrDuplicate
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	now := s.stamp()
	app.CreatedAt, app.UpdatedAt = now, now
	s.applications[app.ID] = *app
	return nil
}

// GetApplication implements store.ApplicationStore
func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

// FindApplication implements store.ApplicationStore
func (s *Store) FindApplication(ctx context.Context, projectID, juniorID uuid.UUID) (*model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.applications {
		if a.ProjectID == projectID && a.JuniorID == juniorID {
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListApplications implements store.ApplicationStore
func (s *Store) ListApplications(ctx context.Context, filter store.ApplicationFilter) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := []model.Application{}
	for _, a := range s.applications {
		if filter.ProjectID != nil && a.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.JuniorID != nil && a.JuniorID != *filter.JuniorID {
			continue
		}
		apps = append(apps, a)
	}
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].AppliedAt.After(apps[j].AppliedAt)
	})
	return apps, nil
}

// UpdateApplicationStatus implements store.ApplicationStore
func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.applications[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = s.stamp()
	s.applications[id] = a
	return nil
}

// DeleteApplication implements store.ApplicationStore
func (s *Store) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.applications, id)
	return nil
}

// DeleteApplicationsByProject implements store.ApplicationStore
func (s *Store) DeleteApplicationsByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, a := range s.applications {
		if a.ProjectID == projectID {
			delete(s.applications, id)
			n++
		}
	}
	return n, nil
}
