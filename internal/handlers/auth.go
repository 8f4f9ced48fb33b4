package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/medguardian/backend/internal/services"
	"github.com/medguardian/backend/pkg/utils"
)

// Signup Request
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

// Signin Request
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Auth Response
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user,omitempty"`
	Token   string                 `json:"token,omitempty"`
}

// Signup handles account registration
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" || req.FullName == "" {
		http.Error(w, "Username, password, and full name are required", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateUsername(req.Username); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	created, err := services.CreateUser(r.Context(), req.Username, req.Password, req.FullName, req.Phone)
	if err != nil {
		log.Printf("ERROR: signup failed for %s: %v", req.Username, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if !created {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
	})
}

// Signin handles login and opens the session slot
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := services.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrPersistence) {
			http.Error(w, "Database error", http.StatusInternalServerError)
		} else {
			http.Error(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}
	if user == nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := h.Sessions.Login(user)
	if err != nil {
		log.Printf("ERROR: could not open session for %s: %v", user.Username, err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User: map[string]interface{}{
			"id":        user.ID.String(),
			"username":  user.Username,
			"full_name": user.FullName,
			"phone":     user.Phone,
		},
	})
}

// Signout ends the current session
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	if sess := h.requireSession(w, r); sess == nil {
		return
	}
	h.Sessions.Logout()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Signed out",
	})
}

// Me returns the signed-in user
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Session active",
		User: map[string]interface{}{
			"id":        sess.User.ID.String(),
			"username":  sess.User.Username,
			"full_name": sess.User.FullName,
			"phone":     sess.User.Phone,
		},
	})
}
