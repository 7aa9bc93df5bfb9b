// Package auth issues and validates bearer tokens and serves the account endpoints.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"SeniorJunior-backend/internal/model"
)

// JwtIssuer is the iss claim of every token this server signs
const JwtIssuer = "SeniorJuniorCollab"

// DefaultTokenTTL is how long an access token is valid
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims carry the identity of the token holder
type Claims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 tokens
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager returns a manager signing with secret
func NewJWTManager(secret string, ttl time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for user. Each token gets a unique ID so it can be revoked alone.
func (m *JWTManager) Issue(user *model.User) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   user.ID.String(),
		Email:    user.Email,
		UserType: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    JwtIssuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("Failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses encoded and checks signature, expiry and issuer.
// Expired tokens fail with an error matching jwt.ErrTokenExpired.
func (m *JWTManager) Validate(encoded string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(encoded, claims, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, fmt.Errorf("Invalid token")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("Invalid access token")
	}
	if !claims.VerifyIssuer(JwtIssuer, true) {
		return nil, jwt.ErrTokenInvalidIssuer
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, errors.New("Invalid token subject")
	}
	return claims, nil
}
