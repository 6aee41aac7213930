package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"p9e.in/workorders/models"
	"p9e.in/workorders/repository"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      userPayload `json:"user"`
}

type userPayload struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Role        models.Role `json:"role"`
	RoleLabel   string      `json:"roleLabel"`
	Permissions []string    `json:"permissions"`
}

func newUserPayload(e *models.Employee) userPayload {
	return userPayload{
		ID:          e.ID,
		Name:        e.FullName(),
		Email:       e.Email,
		Phone:       e.Phone,
		Role:        e.Role,
		RoleLabel:   e.Role.Label(),
		Permissions: e.Role.Permissions(),
	}
}

// Login checks the credentials and opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	emp, err := h.employees.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil || !emp.IsActive {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, sess, err := h.sessions.Issue(emp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "login", "employee_id", emp.ID, "role", emp.Role)
	writeJSON(w, http.StatusOK, loginResp{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      newUserPayload(emp),
	})
}

// Logout revokes the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Revoke(session(r))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the logged-in employee.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employees.Get(r.Context(), session(r).EmployeeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserPayload(emp))
}

type signatureReq struct {
	Image string `json:"image"`
}

// GetMySignature returns the stored technician signature.
func (h *Handler) GetMySignature(w http.ResponseWriter, r *http.Request) {
	sig, err := h.signatures.Get(r.Context(), session(r).EmployeeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

// PutMySignature replaces the stored technician signature. Data URLs are
// moved to blob storage first.
func (h *Handler) PutMySignature(w http.ResponseWriter, r *http.Request) {
	var req signatureReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	sess := session(r)
	ref, err := h.persistImage(r.Context(), "signatures/"+sess.EmployeeID.String(), req.Image)
	if err != nil {
		h.imageFailed(w, r, err)
		return
	}
	sig, err := h.signatures.Put(r.Context(), sess.EmployeeID, ref)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}
