package mongostore

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"SeniorJunior-backend/internal/model"
)

type userDoc struct {
	ID                   string     `bson:"_id"`
	Name                 string     `bson:"name"`
	Email                string     `bson:"email"`
	Password             string     `bson:"password"`
	Role                 string     `bson:"userType"`
	Skills               []string   `bson:"skills"`
	Experience           string     `bson:"experience"`
	ProfilePicturePath   string     `bson:"profilePicture"`
	ResumePath           string     `bson:"resume"`
	GithubURL            string     `bson:"githubUrl"`
	ProjectsCompleted    int        `bson:"projectsCompleted"`
	IsVerified           bool       `bson:"isVerified"`
	VerificationOTP      *string    `bson:"verificationOtp,omitempty"`
	VerificationExpires  *time.Time `bson:"verificationOtpExpires,omitempty"`
	PasswordResetOTP     *string    `bson:"passwordResetOtp,omitempty"`
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty"`
	CreatedAt            time.Time  `bson:"createdAt"`
	UpdatedAt            time.Time  `bson:"updatedAt"`
}

type projectDoc struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"title"`
	Description     string    `bson:"description"`
	RequiredSkills  []string  `bson:"requiredSkills"`
	Duration        string    `bson:"duration"`
	Difficulty      string    `bson:"difficulty"`
	SeniorID        string    `bson:"seniorId"`
	Status          string    `bson:"status"`
	AcceptedJuniors []string  `bson:"acceptedJuniors"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

type applicationDoc struct {
	ID           string    `bson:"_id"`
	ProjectID    string    `bson:"projectId"`
	JuniorID     string    `bson:"juniorId"`
	CoverLetter  string    `bson:"coverLetter"`
	ResumePath   string    `bson:"resumePath"`
	PortfolioURL string    `bson:"portfolioUrl"`
	Status       string    `bson:"status"`
	AppliedAt    time.Time `bson:"appliedAt"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toUserDoc(u *model.User) userDoc {
	return userDoc{
		ID:                   u.ID.String(),
		Name:                 u.Name,
		Email:                u.Email,
		Password:             u.Password,
		Role:                 u.Role,
		Skills:               nonNil(u.Skills),
		Experience:           u.Experience,
		ProfilePicturePath:   u.ProfilePicturePath,
		ResumePath:           u.ResumePath,
		GithubURL:            u.GithubURL,
		ProjectsCompleted:    u.ProjectsCompleted,
		IsVerified:           u.IsVerified,
		VerificationOTP:      u.VerificationOTP,
		VerificationExpires:  u.VerificationExpires,
		PasswordResetOTP:     u.PasswordResetOTP,
		PasswordResetExpires: u.PasswordResetExpires,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (d userDoc) model() model.User {
	return model.User{
		ID:                   uuid.MustParse(d.ID),
		Name:                 d.Name,
		Email:                d.Email,
		Password:             d.Password,
		Role:                 d.Role,
		Skills:               pq.StringArray(d.Skills),
		Experience:           d.Experience,
		ProfilePicturePath:   d.ProfilePicturePath,
		ResumePath:           d.ResumePath,
		GithubURL:            d.GithubURL,
		ProjectsCompleted:    d.ProjectsCompleted,
		IsVerified:           d.IsVerified,
		VerificationOTP:      d.VerificationOTP,
		VerificationExpires:  d.VerificationExpires,
		PasswordResetOTP:     d.PasswordResetOTP,
		PasswordResetExpires: d.PasswordResetExpires,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

func toProjectDoc(p *model.Project) projectDoc {
	return projectDoc{
		ID:              p.ID.String(),
		Title:           p.Title,
		Description:     p.Description,
		RequiredSkills:  nonNil(p.RequiredSkills),
		Duration:        p.Duration,
		Difficulty:      p.Difficulty,
		SeniorID:        p.SeniorID.String(),
		Status:          p.Status,
		AcceptedJuniors: nonNil(p.AcceptedJuniors),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (d projectDoc) model() model.Project {
	return model.Project{
		ID:              uuid.MustParse(d.ID),
		Title:           d.Title,
		Description:     d.Description,
		RequiredSkills:  pq.StringArray(d.RequiredSkills),
		Duration:        d.Duration,
		Difficulty:      d.Difficulty,
		SeniorID:        uuid.MustParse(d.SeniorID),
		Status:          d.Status,
		AcceptedJuniors: pq.StringArray(nonNil(d.AcceptedJuniors)),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toApplicationDoc(a *model.Application) applicationDoc {
	return applicationDoc{
		ID:           a.ID.String(),
		ProjectID:    a.ProjectID.String(),
		JuniorID:     a.JuniorID.String(),
		CoverLetter:  a.CoverLetter,
		ResumePath:   a.ResumePath,
		PortfolioURL: a.PortfolioURL,
		Status:       a.Status,
		AppliedAt:    a.AppliedAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (d applicationDoc) model() model.Application {
	return model.Application{
		ID:           uuid.MustParse(d.ID),
		ProjectID:    uuid.MustParse(d.ProjectID),
		JuniorID:     uuid.MustParse(d.JuniorID),
		CoverLetter:  d.CoverLetter,
		ResumePath:   d.ResumePath,
		PortfolioURL: d.PortfolioURL,
		Status:       d.Status,
		AppliedAt:    d.AppliedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
