package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenHeader carries the bearer token on every protected request.
const TokenHeader = "x-auth-token"

// DefaultTTL matches the 360000 second expiry issued at login.
const DefaultTTL = 360000 * time.Second

var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("invalid token")
)

type userClaim struct {
	ID string `json:"id"`
}

type claims struct {
	User userClaim `json:"user"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewManager(secret string, maxAge time.Duration) *Manager {
	if maxAge <= 0 {
		maxAge = DefaultTTL
	}
	return &Manager{secret: []byte(secret), maxAge: maxAge, now: time.Now}
}

// Issue signs a token embedding userID.
func (m *Manager) Issue(userID string) (string, error) {
	now := m.now()
	c := claims{
		User: userClaim{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Verify returns the user id carried by tok.
func (m *Manager) Verify(tok string) (string, error) {
	if tok == "" {
		return "", ErrNoToken
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(tok, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || c.User.ID == "" {
		return "", ErrInvalidToken
	}
	return c.User.ID, nil
}
