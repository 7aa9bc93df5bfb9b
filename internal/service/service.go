// Package service holds the business rules for accounts, projects and applications.
// Handlers translate HTTP to calls here, services talk to the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"SeniorJunior-backend/internal/mailer"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/otp"
	"SeniorJunior-backend/internal/store"
)

// TokenIssuer signs bearer tokens for a user
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// DefaultWithdrawWindow is how long after applying a junior may withdraw
const DefaultWithdrawWindow = 24 * time.Hour

// Deps are the collaborators shared by the services. Zero values get defaults where one exists.
type Deps struct {
	Store    store.Store
	Mailer   mailer.Mailer
	Tokens   TokenIssuer
	Throttle otp.Throttle
	Cleaner  *FileCleaner
	Log      *zap.Logger
	Now      func() time.Time

	OTPTTL         time.Duration
	WithdrawWindow time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.OTPTTL <= 0 {
		d.OTPTTL = otp.DefaultTTL
	}
	if d.WithdrawWindow <= 0 {
		d.WithdrawWindow = DefaultWithdrawWindow
	}
	return d
}

// cleanup hands paths to the cleaner when one is configured
func (d Deps) cleanup(paths ...string) {
	if d.Cleaner != nil {
		d.Cleaner.Enqueue(paths...)
	}
}

// storeErr wraps an unexpected store failure
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// SplitSkills turns "go, sql,,docker" into [go sql docker]
func SplitSkills(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeEmail lowercases and trims an address before lookup or storage
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// throttle records one code email for the address and fails once the limit is hit
func (d Deps) throttle(ctx context.Context, email string) error {
	if d.Throttle == nil {
		return nil
	}
	ok, err := d.Throttle.Allow(ctx, email)
	if err != nil {
		// a throttle outage should not lock users out
		d.Log.Warn("otp throttle unavailable", zap.Error(err))
		return nil
	}
	if !ok {
		return ErrTooManyOTPRequests
	}
	return nil
}

func (d Deps) mail(ctx context.Context, to, subject, body string) error {
	if err := d.Mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send %q email: %w", subject, err)
	}
	return nil
}
