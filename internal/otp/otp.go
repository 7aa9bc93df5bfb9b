// Package otp generates one-time passcodes and throttles how often they are sent.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// Length is the number of digits in a code
const Length = 6

// DefaultTTL is how long a code stays valid
const DefaultTTL = 5 * time.Minute

var upper = big.NewInt(1_000_000)

// Generate returns a uniformly random 6 digit code, zero padded
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// Valid reports whether supplied matches stored and the expiry has not passed.
// A wrong code and an expired code are indistinguishable to the caller.
func Valid(stored string, expiresAt *time.Time, supplied string, now time.Time) bool {
	if stored == "" || supplied == "" || expiresAt == nil {
		return false
	}
	match := subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
	return match && !now.After(*expiresAt)
}
