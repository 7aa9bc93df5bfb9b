// Package store defines the persistence contract shared by every backing datastore.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"SeniorJunior-backend/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no record
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// SaveUser overwrites every column of an existing user
	SaveUser(ctx context.Context, user *model.User) error
	ListUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
}

// ProjectFilter narrows ListProjects. Nil fields do not filter.
type ProjectFilter struct {
	Status         *string
	SeniorID       *uuid.UUID
	AcceptedJunior *uuid.UUID
}

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// ListProjects returns matches newest first
	ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	// SaveProject overwrites the mutable columns. SeniorID and AcceptedJuniors are left as stored.
	SaveProject(ctx context.Context, project *model.Project) error
	// AddAcceptedJunior set-inserts juniorID, a no-op when already present
	AddAcceptedJunior(ctx context.Context, projectID, juniorID uuid.UUID) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

// ApplicationFilter narrows ListApplications. Nil fields do not filter.
type ApplicationFilter struct {
	ProjectID *uuid.UUID
	JuniorID  *uuid.UUID
}

// ApplicationStore persists applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *model.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindApplication(ctx context.Context, projectID, juniorID uuid.UUID) (*model.Application, error)
	// ListApplications returns matches newest first
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]model.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteApplication(ctx context.Context, id uuid.UUID) error
	DeleteApplicationsByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	ProjectStore
	ApplicationStore

	// Transaction runs fn against a store bound to one unit of work.
	// fn's error rolls the unit back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Health returns status information for the /health endpoint
	Health() map[string]string
	Close() error
}
