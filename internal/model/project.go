package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	// ProjectStatusOpen accepts new applications
	ProjectStatusOpen = "open"
	// ProjectStatusClosed no longer accepts applications, work is in progress
	ProjectStatusClosed = "closed"
	// ProjectStatusCompleted is finished
	ProjectStatusCompleted = "completed"
)

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// ProjectStatuses lists every valid project status
var ProjectStatuses = []string{ProjectStatusOpen, ProjectStatusClosed, ProjectStatusCompleted}

// Difficulties lists every valid project difficulty
var Difficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Project is a posting owned by a senior
type Project struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"type:text;not null" json:"title"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	RequiredSkills pq.StringArray `gorm:"type:text[]" json:"requiredSkills"`
	Duration       string         `gorm:"type:text" json:"duration"`
	Difficulty     string         `gorm:"type:text;not null" json:"difficulty"`

	// SeniorID is written once on create and never updated by gorm
	SeniorID uuid.UUID `gorm:"<-:create;type:uuid;not null;index" json:"seniorId"`

	Status          string         `gorm:"type:text;not null;default:'open';index" json:"status"`
	AcceptedJuniors pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"acceptedJuniors"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasAcceptedJunior reports whether juniorID is in the accepted set
func (p Project) HasAcceptedJunior(juniorID uuid.UUID) bool {
	id := juniorID.String()
	for _, v := range p.AcceptedJuniors {
		if v == id {
			return true
		}
	}
	return false
}

// AcceptedJuniorIDs parses the accepted set, skipping malformed entries
func (p Project) AcceptedJuniorIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.AcceptedJuniors))
	for _, v := range p.AcceptedJuniors {
		id, err := uuid.Parse(v)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// PublicProject is an open project joined with its owner's name
type PublicProject struct {
	Project
	Senior UserRef `json:"senior"`
}

// ActiveProject is a closed project joined with its accepted juniors
type ActiveProject struct {
	Project
	Juniors []UserRef `json:"juniors"`
}
