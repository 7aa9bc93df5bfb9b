package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
	"SeniorJunior-backend/internal/utilities"
)

const (
	MsgProjectCreated = "Project created successfully"
	MsgProjectUpdated = "Project updated successfully"
	MsgProjectDeleted = "Project and all associated applications deleted successfully."
)

// ProjectService manages project postings
type ProjectService struct {
	Deps
}

// NewProjectService returns a ProjectService. d.Store is required.
func NewProjectService(d Deps) *ProjectService {
	return &ProjectService{Deps: d.withDefaults()}
}

// CreateProjectInput is a new posting
type CreateProjectInput struct {
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	RequiredSkills []string `json:"requiredSkills" validate:"required,min=1,dive,required"`
	Duration       string   `json:"duration" validate:"required"`
	Difficulty     string   `json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
}

// Create stores an open project owned by seniorID with no accepted juniors
func (s *ProjectService) Create(ctx context.Context, seniorID uuid.UUID, in CreateProjectInput) (*model.Project, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p := &model.Project{
		ID:              uuid.New(),
		Title:           in.Title,
		Description:     in.Description,
		RequiredSkills:  in.RequiredSkills,
		Duration:        in.Duration,
		Difficulty:      in.Difficulty,
		SeniorID:        seniorID,
		Status:          model.ProjectStatusOpen,
		AcceptedJuniors: []string{},
	}
	if err := s.Store.CreateProject(ctx, p); err != nil {
		return nil, storeErr("create project", err)
	}
	s.Log.Info("project created", zap.String("project_id", p.ID.String()), zap.String("senior_id", seniorID.String()))
	return p, nil
}

// ListOpen returns every open project with its owner's name
func (s *ProjectService) ListOpen(ctx context.Context) ([]model.PublicProject, error) {
	status := model.ProjectStatusOpen
	projects, err := s.Store.ListProjects(ctx, store.ProjectFilter{Status: &status})
	if err != nil {
		return nil, storeErr("list open projects", err)
	}

	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.SeniorID)
	}
	owners, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.PublicProject, 0, len(projects))
	for _, p := range projects {
		ref := model.UserRef{ID: p.SeniorID}
		if u, ok := owners[p.SeniorID]; ok {
			ref.Name = u.Name
		}
		out = append(out, model.PublicProject{Project: p, Senior: ref})
	}
	return out, nil
}

// ListMine returns every project owned by seniorID regardless of status
func (s *ProjectService) ListMine(ctx context.Context, seniorID uuid.UUID) ([]model.Project, error) {
	projects, err := s.Store.ListProjects(ctx, store.ProjectFilter{SeniorID: &seniorID})
	if err != nil {
		return nil, storeErr("list senior projects", err)
	}
	return projects, nil
}

// ListActive returns the senior's closed projects joined with their accepted juniors.
// A closed project no longer takes applications but is not completed yet.
func (s *ProjectService) ListActive(ctx context.Context, seniorID uuid.UUID) ([]model.ActiveProject, error) {
	status := model.ProjectStatusClosed
	projects, err := s.Store.ListProjects(ctx, store.ProjectFilter{SeniorID: &seniorID, Status: &status})
	if err != nil {
		return nil, storeErr("list active projects", err)
	}

	var ids []uuid.UUID
	for _, p := range projects {
		ids = append(ids, p.AcceptedJuniorIDs()...)
	}
	juniors, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.ActiveProject, 0, len(projects))
	for _, p := range projects {
		refs := []model.UserRef{}
		for _, id := range p.AcceptedJuniorIDs() {
			if u, ok := juniors[id]; ok {
				refs = append(refs, model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email})
			}
		}
		out = append(out, model.ActiveProject{Project: p, Juniors: refs})
	}
	return out, nil
}

// ListForJunior returns the projects juniorID has been accepted into
func (s *ProjectService) ListForJunior(ctx context.Context, juniorID uuid.UUID) ([]model.Project, error) {
	projects, err := s.Store.ListProjects(ctx, store.ProjectFilter{AcceptedJunior: &juniorID})
	if err != nil {
		return nil, storeErr("list junior projects", err)
	}
	return projects, nil
}

// UpdateProjectInput patches a project. Nil fields are left alone.
type UpdateProjectInput struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	RequiredSkills *[]string `json:"requiredSkills"`
	Duration       *string   `json:"duration"`
	Difficulty     *string   `json:"difficulty"`
	Status         *string   `json:"status"`
}

// Update patches a project owned by seniorID. Status may be set to any valid value.
func (s *ProjectService) Update(ctx context.Context, seniorID, projectID uuid.UUID, in UpdateProjectInput) (*model.Project, error) {
	p, err := s.ownedProject(ctx, s.Store, seniorID, projectID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, newError(KindValidation, "title must not be empty")
		}
		p.Title = *in.Title
	}
	if in.Description != nil {
		if *in.Description == "" {
			return nil, newError(KindValidation, "description must not be empty")
		}
		p.Description = *in.Description
	}
	if in.RequiredSkills != nil {
		if err := validate.Var(*in.RequiredSkills, "min=1,dive,required"); err != nil {
			return nil, newError(KindValidation, "requiredSkills must list at least one skill")
		}
		p.RequiredSkills = *in.RequiredSkills
	}
	if in.Duration != nil {
		p.Duration = *in.Duration
	}
	if in.Difficulty != nil {
		if !utilities.Contains(model.Difficulties, *in.Difficulty) {
			return nil, newError(KindValidation, "difficulty must be one of: Beginner Intermediate Advanced")
		}
		p.Difficulty = *in.Difficulty
	}
	if in.Status != nil {
		if !utilities.Contains(model.ProjectStatuses, *in.Status) {
			return nil, newError(KindValidation, "status must be one of: open closed completed")
		}
		p.Status = *in.Status
	}

	if err := s.Store.SaveProject(ctx, p); err != nil {
		return nil, storeErr("save project", err)
	}
	updated, err := s.Store.GetProject(ctx, p.ID)
	if err != nil {
		return nil, storeErr("reload project", err)
	}
	return updated, nil
}

// Delete removes a project owned by seniorID and its applications in one transaction,
// then queues the applications' résumés for deletion.
func (s *ProjectService) Delete(ctx context.Context, seniorID, projectID uuid.UUID) error {
	var resumes []string
	err := s.Store.Transaction(ctx, func(tx store.Store) error {
		if _, err := s.ownedProject(ctx, tx, seniorID, projectID); err != nil {
			return err
		}
		apps, err := tx.ListApplications(ctx, store.ApplicationFilter{ProjectID: &projectID})
		if err != nil {
			return storeErr("list project applications", err)
		}
		for _, a := range apps {
			resumes = append(resumes, a.ResumePath)
		}
		if _, err := tx.DeleteApplicationsByProject(ctx, projectID); err != nil {
			return storeErr("delete project applications", err)
		}
		if err := tx.DeleteProject(ctx, projectID); err != nil {
			return storeErr("delete project", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cleanup(resumes...)
	s.Log.Info("project deleted",
		zap.String("project_id", projectID.String()),
		zap.Int("applications", len(resumes)),
	)
	return nil
}

// ownedProject loads a project and checks seniorID owns it
func (d Deps) ownedProject(ctx context.Context, st store.Store, seniorID, projectID uuid.UUID) (*model.Project, error) {
	p, err := st.GetProject(ctx, projectID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, storeErr("find project", err)
	}
	if p.SeniorID != seniorID {
		return nil, ErrNotProjectOwner
	}
	return p, nil
}

// usersByID loads users once per distinct id
func (d Deps) usersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	out := map[uuid.UUID]model.User{}
	if len(ids) == 0 {
		return out, nil
	}
	seen := map[uuid.UUID]bool{}
	distinct := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	users, err := d.Store.ListUsersByIDs(ctx, distinct)
	if err != nil {
		return nil, storeErr("load users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
