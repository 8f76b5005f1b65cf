// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"nourish/internal/auth"
	"nourish/internal/domain"
	"nourish/internal/validation"
)

var usernameInvalid = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Session is the result of a successful sign-in.
type Session struct {
	User   *domain.User
	Tokens auth.Pair
}

// AuthService handles registration, sign-in and token lifecycle.
type AuthService struct {
	users  domain.UserRepository
	tokens domain.RefreshTokenRepository
	jwt    *auth.JWTManager
	now    func() time.Time
}

// NewAuthService creates an AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, tokens domain.RefreshTokenRepository, jwt *auth.JWTManager) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwt: jwt, now: time.Now}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in validation.Registration) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkAvailable(ctx, s.users, in.Email, in.Username, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Goals:        in.Goals(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &ConflictError{Message: "Email or username already registered"}
		}
		return nil, err
	}
	return s.startSession(ctx, u)
}

// Login verifies email and password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, in validation.Login) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	// SSO-provisioned accounts have no password.
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, u)
}

// LoginWithSSO signs in the account matching a verified identity provider
// email, creating it with default goals on first sign-in.
func (s *AuthService) LoginWithSSO(ctx context.Context, email, preferredName string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("identity provider returned no email")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return s.startSession(ctx, u)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	username, err := s.freeUsername(ctx, ssoUsername(email, preferredName))
	if err != nil {
		return nil, err
	}
	u = &domain.User{Email: email, Username: username, Goals: domain.DefaultGoals()}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("provision sso user: %w", err)
	}
	return s.startSession(ctx, u)
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	if _, err := s.tokens.Get(ctx, claims.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: refresh token revoked", auth.ErrInvalidToken)
		}
		return "", err
	}
	userID, _ := claims.UserID()
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return s.jwt.IssueAccess(userID)
}

// Logout revokes a refresh token. Revoking an unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, claims.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate verifies an access token and returns its user id.
func (s *AuthService) Authenticate(accessToken string) (int64, error) {
	claims, err := s.jwt.ParseAccess(accessToken)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

// PruneExpiredTokens removes refresh tokens past their expiry.
func (s *AuthService) PruneExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}

func (s *AuthService) startSession(ctx context.Context, u *domain.User) (*Session, error) {
	pair, err := s.jwt.IssuePair(u.ID)
	if err != nil {
		return nil, err
	}
	rt := domain.RefreshToken{
		ID:        pair.RefreshID,
		UserID:    u.ID,
		ExpiresAt: pair.RefreshExpires,
		CreatedAt: s.now(),
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Session{User: u, Tokens: pair}, nil
}

// checkAvailable reports a ConflictError when email or username belongs to
// a user other than self. Empty values are not checked.
func checkAvailable(ctx context.Context, users domain.UserRepository, email, username string, self int64) error {
	if email != "" {
		u, err := users.GetByEmail(ctx, email)
		switch {
		case err == nil && u.ID != self:
			return &ConflictError{Message: "Email already registered"}
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return err
		}
	}
	if username != "" {
		u, err := users.GetByUsername(ctx, username)
		switch {
		case err == nil && u.ID != self:
			return &ConflictError{Message: "Username already taken"}
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return err
		}
	}
	return nil
}

// freeUsername appends a counter to base until no user holds it.
func (s *AuthService) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i < 100; i++ {
		_, err := s.users.GetByUsername(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", &ConflictError{Message: "Username already taken"}
}

func ssoUsername(email, preferred string) string {
	name := usernameInvalid.ReplaceAllString(preferred, "")
	if len(name) < 3 {
		name = usernameInvalid.ReplaceAllString(email[:strings.IndexByte(email+"@", '@')], "")
	}
	if len(name) < 3 {
		name = "user_" + name
	}
	if len(name) > 26 {
		name = name[:26]
	}
	return name
}
