// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"nourish/internal/app"
	"nourish/internal/logging"
	"nourish/internal/validation"
)

// OIDCConfig holds the discovered identity provider used for SSO.
type OIDCConfig struct {
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// NewOIDCConfig discovers issuer and prepares the authorization code flow.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return &OIDCConfig{
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

type sessionResponse struct {
	Message      string `json:"message,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         any    `json:"user"`
}

func newSessionResponse(sess *app.Session, msg string) sessionResponse {
	return sessionResponse{
		Message:      msg,
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		User:         sess.User,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req validation.Registration
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Int64("user_id", sess.User.ID).Msg("User registered")
	writeJSON(w, http.StatusCreated, newSessionResponse(sess, "User created successfully"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req validation.Login
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess, ""))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	access, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

func (s *Server) handleSSOConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sso_enabled": s.opts.SSO != nil,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.opts.SSO == nil {
		writeMessage(w, http.StatusNotFound, "SSO is not enabled")
		return
	}
	state, err := generateState()
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/api/auth/sso",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.opts.SSO.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.opts.SSO == nil {
		writeMessage(w, http.StatusNotFound, "SSO is not enabled")
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		writeMessage(w, http.StatusBadRequest, "Invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/api/auth/sso"})

	ctx := r.Context()
	token, err := s.opts.SSO.OAuth2Config.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("SSO code exchange failed")
		writeMessage(w, http.StatusUnauthorized, "Failed to exchange token")
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No id_token in token response")
		return
	}
	verifier := s.opts.SSO.Provider.Verifier(&oidc.Config{ClientID: s.opts.SSO.OAuth2Config.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("SSO id_token verification failed")
		writeMessage(w, http.StatusUnauthorized, "Failed to verify token")
		return
	}

	var claims struct {
		Email             string `json:"email"`
		EmailVerified     *bool  `json:"email_verified"`
		PreferredUsername string `json:"preferred_username"`
		Name              string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Failed to parse claims")
		return
	}
	if claims.Email == "" || (claims.EmailVerified != nil && !*claims.EmailVerified) {
		writeMessage(w, http.StatusUnauthorized, "Identity provider did not return a verified email")
		return
	}
	preferred := claims.PreferredUsername
	if preferred == "" {
		preferred = claims.Name
	}

	sess, err := s.auth.LoginWithSSO(ctx, claims.Email, preferred)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess, ""))
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
