// Package model contain gorm model for recording data to database
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	// RoleJunior is a developer who applies to projects
	RoleJunior = "junior"
	// RoleSenior is a developer who posts projects and reviews applications
	RoleSenior = "senior"
)

// MinSeniorProjects is the completed-project count a senior needs at registration
const MinSeniorProjects = 6

// User is an account of either role. OTP fields never leave the server.
type User struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string         `gorm:"type:text;not null" json:"name"`
	Email              string         `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Password           string         `gorm:"type:text;not null" json:"-"`
	Role               string         `gorm:"type:text;not null" json:"userType"`
	Skills             pq.StringArray `gorm:"type:text[]" json:"skills"`
	Experience         string         `gorm:"type:text" json:"experience"`
	ProfilePicturePath string         `gorm:"type:text" json:"profilePicture"`
	ResumePath         string         `gorm:"type:text" json:"resume"`
	GithubURL          string         `gorm:"type:text" json:"githubUrl"`
	ProjectsCompleted  int            `gorm:"not null;default:0" json:"projectsCompleted"`
	IsVerified         bool           `gorm:"not null;default:false" json:"isVerified"`

	VerificationOTP      *string    `gorm:"type:text" json:"-"`
	VerificationExpires  *time.Time `json:"-"`
	PasswordResetOTP     *string    `gorm:"type:text" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSummary is the short identity returned next to a token
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	UserType string    `json:"userType"`
}

// Summary returns the short form of u
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, UserType: u.Role}
}

// UserRef is a user joined into another record's response
type UserRef struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Skills []string  `json:"skills,omitempty"`
}

// AuthResponse is returned on successful email verification and login
type AuthResponse struct {
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}
