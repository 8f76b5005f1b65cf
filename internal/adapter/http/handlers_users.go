package adapthttp

import (
	"net/http"

	"nourish/internal/validation"
)

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Profile(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var req validation.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}
	u, err := s.users.UpdateProfile(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated successfully", "user": u})
}

func (s *Server) handleGoalsUpdate(w http.ResponseWriter, r *http.Request) {
	var req validation.GoalsUpdate
	if !decode(w, r, &req) {
		return
	}
	u, err := s.users.UpdateGoals(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Goals updated successfully", "user": u})
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	var req validation.PasswordChange
	if !decode(w, r, &req) {
		return
	}
	if err := s.users.ChangePassword(r.Context(), currentUser(r), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully")
}

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), currentUser(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account deleted")
}
