// Package auth issues and verifies the bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrInvalidToken covers bad signatures, expiry, malformed claims and wrong token types.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the JWT claims of both token types. Subject holds the decimal user id.
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject strictly as a decimal int64.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, c.Subject)
	}
	return id, nil
}

// Pair is a freshly issued access and refresh token.
type Pair struct {
	AccessToken    string
	RefreshToken   string
	RefreshID      string
	RefreshExpires time.Time
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTManager returns a manager for the given secret and lifetimes.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required but was empty")
	}
	return &JWTManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of m that reads time from now.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	c := *m
	c.now = now
	return &c
}

// IssuePair signs a new access token and a refresh token with a fresh id.
func (m *JWTManager) IssuePair(userID int64) (Pair, error) {
	access, err := m.IssueAccess(userID)
	if err != nil {
		return Pair{}, err
	}
	jti := uuid.NewString()
	exp := m.now().Add(m.refreshTTL)
	refresh, err := m.sign(userID, TypeRefresh, jti, exp)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, RefreshID: jti, RefreshExpires: exp}, nil
}

// IssueAccess signs a new access token.
func (m *JWTManager) IssueAccess(userID int64) (string, error) {
	return m.sign(userID, TypeAccess, uuid.NewString(), m.now().Add(m.accessTTL))
}

func (m *JWTManager) sign(userID int64, typ, jti string, exp time.Time) (string, error) {
	now := m.now()
	claims := &Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies an access token.
func (m *JWTManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, TypeAccess)
}

// ParseRefresh verifies a refresh token.
func (m *JWTManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, TypeRefresh)
}

func (m *JWTManager) parse(tokenString, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, typ, claims.Type)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
