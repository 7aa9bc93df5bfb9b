package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/mailer"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/otp"
	"SeniorJunior-backend/internal/store"
	"SeniorJunior-backend/internal/utilities"
)

// Client facing acknowledgements
const (
	MsgRegistered     = "Registration successful! Please check your email for a verification code."
	MsgOTPResent      = "New OTP sent successfully."
	MsgVerified       = "Email verified successfully!"
	MsgLoggedIn       = "Login successful"
	MsgProfileUpdated = "Profile updated successfully!"
	MsgResetSent      = "If a user with that email exists, a reset code has been sent."
	MsgPasswordReset  = "Password has been reset successfully."
)

// AuthService registers, verifies and authenticates users
type AuthService struct {
	Deps
}

// NewAuthService returns an AuthService. d.Store, d.Mailer and d.Tokens are required.
func NewAuthService(d Deps) *AuthService {
	return &AuthService{Deps: d.withDefaults()}
}

// RegisterInput is a registration form. File paths are already stored uploads.
type RegisterInput struct {
	Name              string `json:"name" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	UserType          string `json:"userType" validate:"required,oneof=junior senior"`
	Skills            string `json:"skills"`
	Experience        string `json:"experience"`
	ProjectsCompleted int    `json:"projectsCompleted" validate:"gte=0"`
	GithubURL         string `json:"githubUrl" validate:"omitempty,url"`

	ResumePath         string `json:"-"`
	ProfilePicturePath string `json:"-"`
}

// Register creates an unverified account, or overwrites an earlier unverified one with the
// same email, and mails a verification code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.UserType == model.RoleSenior && in.ProjectsCompleted < model.MinSeniorProjects {
		return ErrSeniorRequirement
	}

	existing, err := s.Store.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.IsVerified:
		return ErrEmailTaken
	case err != nil && !isNotFound(err):
		return storeErr("find user", err)
	}

	if err := s.throttle(ctx, in.Email); err != nil {
		return err
	}

	hashed, err := utilities.HashPassword(in.Password)
	if err != nil {
		return err
	}
	code, err := otp.Generate()
	if err != nil {
		return err
	}
	expires := s.Now().Add(s.OTPTTL)

	user := &model.User{
		Name:                in.Name,
		Email:               in.Email,
		Password:            hashed,
		Role:                in.UserType,
		Skills:              SplitSkills(in.Skills),
		Experience:          in.Experience,
		ProfilePicturePath:  in.ProfilePicturePath,
		ResumePath:          in.ResumePath,
		GithubURL:           in.GithubURL,
		ProjectsCompleted:   in.ProjectsCompleted,
		VerificationOTP:     &code,
		VerificationExpires: &expires,
	}

	var superseded []string
	if existing != nil {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		if existing.ResumePath != user.ResumePath {
			superseded = append(superseded, existing.ResumePath)
		}
		if existing.ProfilePicturePath != user.ProfilePicturePath {
			superseded = append(superseded, existing.ProfilePicturePath)
		}
		if err := s.Store.SaveUser(ctx, user); err != nil {
			return storeErr("overwrite unverified user", err)
		}
	} else {
		user.ID = uuid.New()
		if err := s.Store.CreateUser(ctx, user); err != nil {
			if isDuplicate(err) {
				return ErrEmailTaken
			}
			return storeErr("create user", err)
		}
	}
	s.cleanup(superseded...)

	s.Log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return s.mail(ctx, user.Email, mailer.SubjectVerify, mailer.VerificationBody(code, s.OTPTTL))
}

// ResendOTP issues a fresh verification code to an unverified user
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return newError(KindValidation, "email is required")
	}
	user, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return storeErr("find user", err)
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if err := s.throttle(ctx, email); err != nil {
		return err
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	expires := s.Now().Add(s.OTPTTL)
	user.VerificationOTP = &code
	user.VerificationExpires = &expires
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return storeErr("save otp", err)
	}
	return s.mail(ctx, user.Email, mailer.SubjectResend, mailer.ResendBody(code, s.OTPTTL))
}

// VerifyEmail marks the account verified when code matches and has not expired
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*model.AuthResponse, error) {
	user, err := s.Store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidOrExpiredOTP
		}
		return nil, storeErr("find user", err)
	}
	if !otp.Valid(deref(user.VerificationOTP), user.VerificationExpires, code, s.Now()) {
		return nil, ErrInvalidOrExpiredOTP
	}

	user.IsVerified = true
	user.VerificationOTP = nil
	user.VerificationExpires = nil
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return nil, storeErr("verify user", err)
	}
	return s.authResponse(user, MsgVerified)
}

// Login checks the password first so the verification state is only revealed to the owner
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	user, err := s.Store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr("find user", err)
	}
	if user.Password == "" || !utilities.VerifyPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	return s.authResponse(user, MsgLoggedIn)
}

// Profile returns the caller's account
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.Store.GetUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("find user", err)
	}
	return user, nil
}

// UpdateProfileInput patches an account. Nil or blank fields keep their stored value.
type UpdateProfileInput struct {
	Name              *string
	Skills            *string
	Experience        *string
	ProjectsCompleted *int
	GithubURL         *string

	// ProfilePicturePath is a newly stored upload, empty when none was sent
	ProfilePicturePath string
}

// UpdateProfile applies in. A replaced profile picture is queued for deletion after the save.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v, ok := nonBlank(in.Name); ok {
		user.Name = v
	}
	if v, ok := nonBlank(in.Skills); ok {
		user.Skills = SplitSkills(v)
	}
	if v, ok := nonBlank(in.Experience); ok {
		user.Experience = v
	}
	if in.ProjectsCompleted != nil {
		if *in.ProjectsCompleted < 0 {
			return nil, newError(KindValidation, "projectsCompleted must not be negative")
		}
		user.ProjectsCompleted = *in.ProjectsCompleted
	}
	if v, ok := nonBlank(in.GithubURL); ok {
		if err := validate.Var(v, "url"); err != nil {
			return nil, newError(KindValidation, "githubUrl is invalid")
		}
		user.GithubURL = v
	}

	var previous string
	if in.ProfilePicturePath != "" && in.ProfilePicturePath != user.ProfilePicturePath {
		previous = user.ProfilePicturePath
		user.ProfilePicturePath = in.ProfilePicturePath
	}

	if err := s.Store.SaveUser(ctx, user); err != nil {
		return nil, storeErr("save profile", err)
	}
	s.cleanup(previous)
	return user, nil
}

// ForgotPassword mails a reset code when the account exists. The outcome is the same either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return newError(KindValidation, "email is required")
	}
	// throttled before the lookup so the limit does not reveal whether the account exists
	if err := s.throttle(ctx, email); err != nil {
		return err
	}

	user, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return storeErr("find user", err)
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	expires := s.Now().Add(s.OTPTTL)
	user.PasswordResetOTP = &code
	user.PasswordResetExpires = &expires
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return storeErr("save reset otp", err)
	}
	return s.mail(ctx, user.Email, mailer.SubjectPasswordReset, mailer.PasswordResetBody(code, s.OTPTTL))
}

// ResetPasswordInput is the reset form
type ResetPasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ResetPassword replaces the password when the reset code matches and has not expired
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return err
	}
	user, err := s.Store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidOrExpiredOTP
		}
		return storeErr("find user", err)
	}
	if !otp.Valid(deref(user.PasswordResetOTP), user.PasswordResetExpires, in.OTP, s.Now()) {
		return ErrInvalidOrExpiredOTP
	}

	hashed, err := utilities.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.PasswordResetOTP = nil
	user.PasswordResetExpires = nil
	if err := s.Store.SaveUser(ctx, user); err != nil {
		return storeErr("save password", err)
	}
	return nil
}

func (s *AuthService) authResponse(user *model.User, msg string) (*model.AuthResponse, error) {
	token, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Message: msg, Token: token, User: user.Summary()}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonBlank(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

func isDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicate)
}
