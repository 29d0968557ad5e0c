package apitest

import (
	"net/http"
	"strings"

	"github.com/roach88/perfumery/internal/model"
)

func (s *Server) startSessionLocked(w http.ResponseWriter, acc *account) {
	tok := s.nextID("tok-")
	s.sessions[tok] = acc.user.ID
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: tok, Path: "/", HttpOnly: true})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decode(r, &creds); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[strings.ToLower(creds.Email)]
	if !ok || acc.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "email or password is incorrect")
		return
	}
	s.startSessionLocked(w, acc)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged in", "user": acc.user})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := decode(r, &reg); err != nil {
		badRequest(w, "invalid body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	switch {
	case !strings.Contains(email, "@"):
		badRequest(w, "email is invalid")
		return
	case len(reg.Password) < 6:
		badRequest(w, "password must be at least 6 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[email]; taken {
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "an account with this email exists")
		return
	}
	acc := &account{
		user: model.User{
			ID:        s.nextID("u"),
			Email:     email,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Age:       reg.Age,
			Gender:    reg.Gender,
			Role:      model.RoleCustomer,
		},
		password: reg.Password,
	}
	s.accounts[email] = acc
	s.startSessionLocked(w, acc)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "registered", "user": acc.user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "user": acc.user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, err := r.Cookie(SessionCookie); err == nil {
		delete(s.sessions, c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd model.ProfileUpdate
	if err := decode(r, &upd); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	if upd.Password != "" && upd.Password != acc.password {
		writeError(w, http.StatusBadRequest, "WRONG_PASSWORD", "password does not match")
		return
	}
	if upd.FirstName != "" {
		acc.user.FirstName = upd.FirstName
	}
	if upd.LastName != "" {
		acc.user.LastName = upd.LastName
	}
	if upd.Age > 0 {
		acc.user.Age = upd.Age
	}
	if upd.Gender != "" {
		acc.user.Gender = upd.Gender
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "profile updated", "user": acc.user})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var chg model.PasswordChange
	if err := decode(r, &chg); err != nil {
		badRequest(w, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.requireLocked(w, r)
	if !ok {
		return
	}
	switch {
	case chg.OldPassword != acc.password:
		writeError(w, http.StatusBadRequest, "WRONG_PASSWORD", "current password does not match")
	case len(chg.NewPassword) < 6:
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "password must be at least 6 characters")
	default:
		acc.password = chg.NewPassword
		writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
	}
}
