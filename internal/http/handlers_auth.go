package http

import (
	"encoding/json"
	"net/http"

	"financas/internal/core"
)

func currentUser(r *http.Request) core.User {
	user, _ := r.Context().Value(userKey).(core.User)
	return user
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.accounts.SignUp(r.Context(), req.Email, req.Password, req.Confirm)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, toUserJSON(user))
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := s.accounts.SignOut(r.Context(), cookie.Value); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserJSON(currentUser(r)))
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// handleUpdateUser changes the account email, the password, or both.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" && req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "nothing to update")
		return
	}

	user := currentUser(r)

	if req.Email != "" {
		updated, err := s.accounts.UpdateEmail(r.Context(), user.ID, req.Email)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		user = updated
	}

	if req.Password != "" {
		if err := s.accounts.UpdatePassword(r.Context(), user.ID, req.Password, req.Confirm); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toUserJSON(user))
}
