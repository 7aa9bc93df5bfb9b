package mailer

import (
	"bytes"
	"html/template"
	"time"
)

// Subjects of the OTP emails
const (
	SubjectVerify        = "Verify Your Email Address"
	SubjectResend        = "New Verification Code"
	SubjectPasswordReset = "Your Password Reset Code"
)

var codeTemplate = template.Must(template.New("code").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.6;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px;">{{.Code}}</p>
  <p>This code will expire in {{.Minutes}} minutes.</p>
</div>`))

type codeData struct {
	Heading string
	Intro   string
	Code    string
	Minutes int
}

func renderCode(heading, intro, code string, ttl time.Duration) string {
	var buf bytes.Buffer
	// the template is static and the data is plain strings, Execute cannot fail here
	_ = codeTemplate.Execute(&buf, codeData{
		Heading: heading,
		Intro:   intro,
		Code:    code,
		Minutes: int(ttl / time.Minute),
	})
	return buf.String()
}

// VerificationBody renders the registration email
func VerificationBody(code string, ttl time.Duration) string {
	return renderCode("Welcome to Senior-Junior Collab!", "Your verification code is:", code, ttl)
}

// ResendBody renders the resent verification email
func ResendBody(code string, ttl time.Duration) string {
	return renderCode("New Verification Code", "Your new verification code is:", code, ttl)
}

// PasswordResetBody renders the password reset email
func PasswordResetBody(code string, ttl time.Duration) string {
	return renderCode("Password Reset Request", "Your password reset code is:", code, ttl)
}
