package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/workorder"
	"p9e.in/workorders/repository"
)

const minPasswordLength = 8

type employeeReq struct {
	FirstName  *string    `json:"firstName"`
	LastName   *string    `json:"lastName"`
	Email      *string    `json:"email"`
	Phone      *string    `json:"phone"`
	Password   string     `json:"password"`
	Role       string     `json:"role"`
	LocationID *uuid.UUID `json:"locationId"`
	VehicleID  *uuid.UUID `json:"vehicleId"`
	ManagerID  *uuid.UUID `json:"managerId"`
	IsActive   *bool      `json:"isActive"`
}

// apply copies the set fields of req onto e.
func (req employeeReq) apply(e *models.Employee) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&e.FirstName, req.FirstName)
	set(&e.LastName, req.LastName)
	set(&e.Email, req.Email)
	set(&e.Phone, req.Phone)
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			return err
		}
		e.Role = role
	}
	if req.LocationID != nil {
		e.LocationID = nilIfZero(*req.LocationID)
	}
	if req.VehicleID != nil {
		e.VehicleID = nilIfZero(*req.VehicleID)
	}
	if req.ManagerID != nil {
		e.ManagerID = nilIfZero(*req.ManagerID)
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}

	switch {
	case e.FirstName == "" || e.LastName == "":
		return errors.New("firstName and lastName are required")
	case !workorder.IsEmail(e.Email):
		return errors.New("a valid email is required")
	case e.ManagerID != nil && *e.ManagerID == e.ID:
		return errors.New("an employee cannot manage themselves")
	}
	return nil
}

// nilIfZero lets clients clear an assignment by sending the nil UUID.
func nilIfZero(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func (h *Handler) hashPassword(pw string) (string, error) {
	if len(pw) < minPasswordLength {
		return "", errors.New("password must be at least 8 characters")
	}
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(hash), err
}

// ListEmployees supports ?role=, ?managerId=, ?active= and ?q=.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.EmployeeFilter{Search: q.Get("q"), Page: pageFrom(r)}
	if v := q.Get("role"); v != "" {
		role, err := models.ParseRole(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Role = role
	}
	if v := q.Get("managerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid managerId")
			return
		}
		f.ManagerID = &id
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active flag")
			return
		}
		f.Active = &active
	}

	rows, total, err := h.employees.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[models.Employee]{Items: rows, Total: total})
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	e, err := h.employees.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	e := models.Employee{ID: uuid.New(), Role: models.RoleTechnician, IsActive: true}
	if err := req.apply(&e); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := h.hashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.PasswordHash = hash

	if err := h.employees.Create(r.Context(), &e); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "employee created", "id", e.ID, "role", e.Role, "by", session(r).EmployeeID)
	writeJSON(w, http.StatusCreated, e)
}

// UpdateEmployee applies a partial update; omitted fields keep their value
// and an empty password leaves the current one.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req employeeReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	e, err := h.employees.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := req.apply(e); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password != "" {
		if e.PasswordHash, err = h.hashPassword(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.employees.Update(r.Context(), e); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEmployee deactivates the account; the employee's work orders stay.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if id == session(r).EmployeeID {
		writeError(w, http.StatusBadRequest, "you cannot deactivate your own account")
		return
	}
	if err := h.employees.Deactivate(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
