// Package pgstore implements store.Store on postgres through gorm.
package pgstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SeniorJunior-backend/internal/database"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
)

const uniqueViolation = "23505"

// Store is a gorm backed store.Store
type Store struct {
	db   *gorm.DB
	inst *database.DBinstanceStruct
}

var _ store.Store = (*Store)(nil)

// New wraps an initialized database instance
func New(inst *database.DBinstanceStruct) *Store {
	return &Store{db: inst.DB, inst: inst}
}

func (s *Store) with(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps driver errors onto the store contract
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicate
	}
	return err
}

// Transaction implements store.Store
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.with(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inst: s.inst})
	})
}

// Health implements store.Store
func (s *Store) Health() map[string]string {
	return s.inst.Health()
}

// Close implements store.Store
func (s *Store) Close() error {
	return s.inst.Close()
}

// CreateUser implements store.UserStore
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return translate(s.with(ctx).Create(user).Error)
}

// GetUserByID implements store.UserStore
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.with(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByEmail implements store.UserStore
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.with(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SaveUser implements store.UserStore
func (s *Store) SaveUser(ctx context.Context, user *model.User) error {
	res := s.with(ctx).Model(user).Select("*").Omit("created_at").Updates(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListUsersByIDs implements store.UserStore
func (s *Store) ListUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.with(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// CreateProject implements store.ProjectStore
func (s *Store) CreateProject(ctx context.Context, project *model.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.AcceptedJuniors == nil {
		project.AcceptedJuniors = []string{}
	}
	return translate(s.with(ctx).Create(project).Error)
}

// GetProject implements store.ProjectStore
func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := s.with(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// ListProjects implements store.ProjectStore
func (s *Store) ListProjects(ctx context.Context, filter store.ProjectFilter) ([]model.Project, error) {
	query := s.with(ctx).Model(&model.Project{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SeniorID != nil {
		query = query.Where("senior_id = ?", *filter.SeniorID)
	}
	if filter.AcceptedJunior != nil {
		query = query.Where("? = ANY(accepted_juniors)", filter.AcceptedJunior.String())
	}

	projects := []model.Project{}
	err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&projects).Error
	if err != nil {
		return nil, translate(err)
	}
	return projects, nil
}

// SaveProject implements store.ProjectStore
func (s *Store) SaveProject(ctx context.Context, project *model.Project) error {
	res := s.with(ctx).Model(project).Select("*").Omit("created_at", "senior_id", "accepted_juniors").Updates(project)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddAcceptedJunior implements store.ProjectStore as a single conditional array_append
func (s *Store) AddAcceptedJunior(ctx context.Context, projectID, juniorID uuid.UUID) error {
	id := juniorID.String()
	res := s.with(ctx).Model(&model.Project{}).
		Where("id = ? AND NOT (? = ANY(COALESCE(accepted_juniors, '{}')))", projectID, id).
		Update("accepted_juniors", gorm.Expr("array_append(COALESCE(accepted_juniors, '{}'), ?)", id))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// either already present or the project is gone
		if _, err := s.GetProject(ctx, projectID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteProject implements store.ProjectStore
func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res := s.with(ctx).Where("id = ?", id).Delete(&model.Project{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateApplication implements store.ApplicationStore
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	return translate(s.with(ctx).Create(app).Error)
}

// GetApplication implements store.ApplicationStore
func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := s.with(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

// FindApplication implements store.ApplicationStore
func (s *Store) FindApplication(ctx context.Context, projectID, juniorID uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := s.with(ctx).
		Where("project_id = ? AND junior_id = ?", projectID, juniorID).
		First(&app).Error
	if err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

// ListApplications implements store.ApplicationStore
func (s *Store) ListApplications(ctx context.Context, filter store.ApplicationFilter) ([]model.Application, error) {
	query := s.with(ctx).Model(&model.Application{})
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.JuniorID != nil {
		query = query.Where("junior_id = ?", *filter.JuniorID)
	}

	apps := []model.Application{}
	err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "applied_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&apps).Error
	if err != nil {
		return nil, translate(err)
	}
	return apps, nil
}

// UpdateApplicationStatus implements store.ApplicationStore
func (s *Store) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := s.with(ctx).Model(&model.Application{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteApplication implements store.ApplicationStore
func (s *Store) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	res := s.with(ctx).Where("id = ?", id).Delete(&model.Application{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteApplicationsByProject implements store.ApplicationStore
func (s *Store) DeleteApplicationsByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	res := s.with(ctx).Where("project_id = ?", projectID).Delete(&model.Application{})
	return res.RowsAffected, translate(res.Error)
}
