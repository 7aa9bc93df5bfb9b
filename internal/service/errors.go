package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"SeniorJunior-backend/internal/model"
)

// Kind classifies a service failure. The HTTP layer maps kinds to status codes.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidOTP
	KindTooManyRequests
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindInvalidOTP:
		return "invalid otp"
	case KindTooManyRequests:
		return "too many requests"
	default:
		return "server"
	}
}

// Error is a failure whose Message is safe to show to the client
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches another *Error with the same kind and message
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf returns the kind of err, KindServer for anything that is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

var (
	ErrSeniorRequirement   = newError(KindValidation, fmt.Sprintf("Seniors must have completed at least %d projects.", model.MinSeniorProjects))
	ErrEmailTaken          = newError(KindConflict, "User with this email already exists.")
	ErrUserNotFound        = newError(KindNotFound, "User not found.")
	ErrAlreadyVerified     = newError(KindValidation, "Email is already verified.")
	ErrInvalidOrExpiredOTP = newError(KindInvalidOTP, "Invalid or expired OTP.")
	ErrInvalidCredentials  = newError(KindValidation, "Invalid credentials")
	ErrNotVerified         = newError(KindForbidden, "Your account is not verified. Please check your email.")
	ErrTooManyOTPRequests  = newError(KindTooManyRequests, "Too many code requests. Please try again later.")

	ErrProjectNotFound = newError(KindNotFound, "Project not found")
	ErrNotProjectOwner = newError(KindForbidden, "Not authorized to manage this project")

	ErrApplicationNotFound     = newError(KindNotFound, "Application not found")
	ErrAlreadyApplied          = newError(KindConflict, "Already applied to this project")
	ErrProjectNotOpen          = newError(KindValidation, "Project is not accepting applications")
	ErrResumeRequired          = newError(KindValidation, "Resume PDF is required.")
	ErrInvalidStatus           = newError(KindValidation, "Invalid application status")
	ErrInvalidStatusTransition = newError(KindValidation, "Invalid status transition")
	ErrNotApplicant            = newError(KindForbidden, "You are not authorized to withdraw this application.")
	ErrWithdrawNotPending      = newError(KindValidation, "Only pending applications can be withdrawn.")
	ErrWithdrawWindowPassed    = newError(KindForbidden, "Cannot withdraw an application after 24 hours.")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and turns the first failure into a client message
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate input: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return newError(KindValidation, fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return newError(KindValidation, "Invalid email address")
	case "min":
		return newError(KindValidation, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
	case "oneof":
		return newError(KindValidation, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
	default:
		return newError(KindValidation, fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
