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
	MsgApplicationSubmitted = "Application submitted successfully"
	MsgApplicationUpdated   = "Application status updated"
	MsgApplicationWithdrawn = "Application withdrawn successfully."
)

// ApplicationService runs the application workflow
type ApplicationService struct {
	Deps
}

// NewApplicationService returns an ApplicationService. d.Store is required.
func NewApplicationService(d Deps) *ApplicationService {
	return &ApplicationService{Deps: d.withDefaults()}
}

// ApplyInput is a junior's application. ResumePath is an already stored upload.
type ApplyInput struct {
	ProjectID    string `json:"projectId" validate:"required,uuid"`
	CoverLetter  string `json:"coverLetter" validate:"required"`
	PortfolioURL string `json:"portfolioUrl" validate:"omitempty,url"`
	ResumePath   string `json:"-"`
}

// Apply creates a pending application of juniorID to an open project
func (s *ApplicationService) Apply(ctx context.Context, juniorID uuid.UUID, in ApplyInput) (*model.Application, error) {
	if in.ResumePath == "" {
		return nil, ErrResumeRequired
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	projectID := uuid.MustParse(in.ProjectID)

	project, err := s.Store.GetProject(ctx, projectID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, storeErr("find project", err)
	}
	if project.Status != model.ProjectStatusOpen {
		return nil, ErrProjectNotOpen
	}

	_, err = s.Store.FindApplication(ctx, projectID, juniorID)
	switch {
	case err == nil:
		return nil, ErrAlreadyApplied
	case !isNotFound(err):
		return nil, storeErr("find application", err)
	}

	app := &model.Application{
		ID:           uuid.New(),
		ProjectID:    projectID,
		JuniorID:     juniorID,
		CoverLetter:  in.CoverLetter,
		ResumePath:   in.ResumePath,
		PortfolioURL: in.PortfolioURL,
		Status:       model.ApplicationStatusPending,
		AppliedAt:    s.Now(),
	}
	if err := s.Store.CreateApplication(ctx, app); err != nil {
		// the unique index catches a concurrent duplicate that passed the lookup
		if isDuplicate(err) {
			return nil, ErrAlreadyApplied
		}
		return nil, storeErr("create application", err)
	}
	s.Log.Info("application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("junior_id", juniorID.String()),
	)
	return app, nil
}

// ListMine returns juniorID's applications with each project's title
func (s *ApplicationService) ListMine(ctx context.Context, juniorID uuid.UUID) ([]model.ApplicationWithProject, error) {
	apps, err := s.Store.ListApplications(ctx, store.ApplicationFilter{JuniorID: &juniorID})
	if err != nil {
		return nil, storeErr("list applications", err)
	}

	titles := map[uuid.UUID]string{}
	for _, a := range apps {
		if _, ok := titles[a.ProjectID]; ok {
			continue
		}
		p, err := s.Store.GetProject(ctx, a.ProjectID)
		switch {
		case err == nil:
			titles[a.ProjectID] = p.Title
		case isNotFound(err):
			titles[a.ProjectID] = ""
		default:
			return nil, storeErr("find project", err)
		}
	}

	out := make([]model.ApplicationWithProject, 0, len(apps))
	for _, a := range apps {
		out = append(out, model.ApplicationWithProject{
			Application: a,
			Project:     model.ProjectRef{ID: a.ProjectID, Title: titles[a.ProjectID]},
		})
	}
	return out, nil
}

// ListForProject returns a project's applications with applicant name, email and skills.
// Only the owning senior may list them.
func (s *ApplicationService) ListForProject(ctx context.Context, seniorID, projectID uuid.UUID) ([]model.ApplicationWithApplicant, error) {
	if _, err := s.ownedProject(ctx, s.Store, seniorID, projectID); err != nil {
		return nil, err
	}
	apps, err := s.Store.ListApplications(ctx, store.ApplicationFilter{ProjectID: &projectID})
	if err != nil {
		return nil, storeErr("list applications", err)
	}

	ids := make([]uuid.UUID, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.JuniorID)
	}
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.ApplicationWithApplicant, 0, len(apps))
	for _, a := range apps {
		ref := model.UserRef{ID: a.JuniorID}
		if u, ok := users[a.JuniorID]; ok {
			ref.Name = u.Name
			ref.Email = u.Email
			ref.Skills = []string(u.Skills)
		}
		out = append(out, model.ApplicationWithApplicant{Application: a, Applicant: ref})
	}
	return out, nil
}

// CanTransition reports whether an application may move from one status to another.
// Staying on the current status is allowed and changes nothing.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case model.ApplicationStatusPending:
		return to == model.ApplicationStatusReviewing ||
			to == model.ApplicationStatusAccepted ||
			to == model.ApplicationStatusRejected
	case model.ApplicationStatusReviewing:
		return to == model.ApplicationStatusAccepted || to == model.ApplicationStatusRejected
	default:
		return false
	}
}

// UpdateStatus moves an application of a project owned by seniorID to status.
// Accepting set-inserts the junior into the project's accepted juniors in the same unit of work.
func (s *ApplicationService) UpdateStatus(ctx context.Context, seniorID, applicationID uuid.UUID, status string) (*model.Application, error) {
	if !utilities.Contains(model.ApplicationStatuses, status) {
		return nil, ErrInvalidStatus
	}

	var updated *model.Application
	err := s.Store.Transaction(ctx, func(tx store.Store) error {
		app, err := tx.GetApplication(ctx, applicationID)
		if err != nil {
			if isNotFound(err) {
				return ErrApplicationNotFound
			}
			return storeErr("find application", err)
		}
		if _, err := s.ownedProject(ctx, tx, seniorID, app.ProjectID); err != nil {
			return err
		}
		if !CanTransition(app.Status, status) {
			return ErrInvalidStatusTransition
		}

		if err := tx.UpdateApplicationStatus(ctx, app.ID, status); err != nil {
			return storeErr("update application status", err)
		}
		if status == model.ApplicationStatusAccepted {
			if err := tx.AddAcceptedJunior(ctx, app.ProjectID, app.JuniorID); err != nil {
				return storeErr("add accepted junior", err)
			}
		}

		updated, err = tx.GetApplication(ctx, app.ID)
		if err != nil {
			return storeErr("reload application", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Withdraw deletes a pending application of juniorID within the withdraw window of its appliedAt,
// then queues its résumé for deletion.
func (s *ApplicationService) Withdraw(ctx context.Context, juniorID, applicationID uuid.UUID) error {
	app, err := s.Store.GetApplication(ctx, applicationID)
	if err != nil {
		if isNotFound(err) {
			return ErrApplicationNotFound
		}
		return storeErr("find application", err)
	}
	if app.JuniorID != juniorID {
		return ErrNotApplicant
	}
	if app.Status != model.ApplicationStatusPending {
		return ErrWithdrawNotPending
	}
	if s.Now().Sub(app.AppliedAt) > s.WithdrawWindow {
		return ErrWithdrawWindowPassed
	}

	if err := s.Store.DeleteApplication(ctx, app.ID); err != nil {
		if isNotFound(err) {
			return ErrApplicationNotFound
		}
		return storeErr("delete application", err)
	}
	s.cleanup(app.ResumePath)
	return nil
}
