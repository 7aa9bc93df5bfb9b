package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ApplicationStatusPending is the initial status of every application
	ApplicationStatusPending = "pending"
	// ApplicationStatusReviewing indicates the senior is looking at the application
	ApplicationStatusReviewing = "reviewing"
	// ApplicationStatusAccepted is terminal, the junior joins the project
	ApplicationStatusAccepted = "accepted"
	// ApplicationStatusRejected is terminal
	ApplicationStatusRejected = "rejected"
)

// ApplicationStatuses lists every valid application status
var ApplicationStatuses = []string{
	ApplicationStatusPending,
	ApplicationStatusReviewing,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// Application is a junior's request to join a project.
// (ProjectID, JuniorID) is unique.
type Application struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_project_junior" json:"projectId"`
	JuniorID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_project_junior;index" json:"juniorId"`
	CoverLetter  string    `gorm:"type:text;not null" json:"coverLetter"`
	ResumePath   string    `gorm:"type:text" json:"resumePath"`
	PortfolioURL string    `gorm:"type:text" json:"portfolioUrl"`
	Status       string    `gorm:"type:text;not null;default:'pending'" json:"status"`
	AppliedAt    time.Time `gorm:"not null" json:"appliedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectRef is a project joined into an application listing
type ProjectRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// ApplicationWithProject is what a junior sees in their own list
type ApplicationWithProject struct {
	Application
	Project ProjectRef `json:"project"`
}

// ApplicationWithApplicant is what a senior sees for one of their projects
type ApplicationWithApplicant struct {
	Application
	Applicant UserRef `json:"applicant"`
}
