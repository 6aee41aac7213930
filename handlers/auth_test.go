package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p9e.in/workorders/middleware"
	"p9e.in/workorders/models"
)

func TestLogin(t *testing.T) {
	e := newEnv(t)

	t.Run("success", func(t *testing.T) {
		rr := e.call(e.h.Login, http.MethodPost, "/login",
			map[string]string{"email": "  TECH@firma.hr", "password": testPassword}, nil, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		resp := decode[loginResp](t, rr)
		assert.Equal(t, e.tech.ID, resp.User.ID)
		assert.Equal(t, models.RoleTechnician, resp.User.Role)
		assert.Equal(t, "Tehničar", resp.User.RoleLabel)
		assert.Contains(t, resp.User.Permissions, "workorder:create")

		sess, err := e.sessions.Parse(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, e.tech.ID, sess.EmployeeID)
	})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", map[string]string{"email": "tech@firma.hr", "password": "nope"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "nobody@firma.hr", "password": testPassword}, http.StatusUnauthorized},
		{"missing fields", map[string]string{"email": ""}, http.StatusBadRequest},
		{"bad json", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.call(e.h.Login, http.MethodPost, "/login", tt.body, nil, nil)
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	t.Run("deactivated", func(t *testing.T) {
		require.NoError(t, e.h.employees.Deactivate(t.Context(), e.other.ID))
		rr := e.call(e.h.Login, http.MethodPost, "/login",
			map[string]string{"email": "other@firma.hr", "password": testPassword}, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	e := newEnv(t)
	token, sess, err := e.sessions.Issue(&e.tech)
	require.NoError(t, err)

	req := e.call(func(w http.ResponseWriter, r *http.Request) {
		e.h.Logout(w, r.WithContext(middleware.WithSession(r.Context(), sess)))
	}, http.MethodPost, "/logout", nil, nil, nil)
	assert.Equal(t, http.StatusNoContent, req.Code)

	_, err = e.sessions.Parse(token)
	assert.ErrorIs(t, err, middleware.ErrRevoked)
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	rr := e.call(e.h.Me, http.MethodGet, "/api/v1/me", nil, &e.lead, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[userPayload](t, rr)
	assert.Equal(t, "lead@firma.hr", me.Email)
	assert.Equal(t, models.RoleLead, me.Role)
}

func TestMySignature(t *testing.T) {
	e := newEnv(t)

	rr := e.call(e.h.GetMySignature, http.MethodGet, "/api/v1/me/signature", nil, &e.tech, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.call(e.h.PutMySignature, http.MethodPut, "/api/v1/me/signature",
		map[string]string{"image": pngDataURL(t)}, &e.tech, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	sig := decode[models.UserSignature](t, rr)
	assert.Regexp(t, `^/uploads/signatures/`+e.tech.ID.String()+`/20240315-103000-.+\.png$`, sig.Image)

	raw, err := e.store.Get(t.Context(), sig.Image)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(raw[:4]))

	rr = e.call(e.h.GetMySignature, http.MethodGet, "/api/v1/me/signature", nil, &e.tech, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, sig.Image, decode[models.UserSignature](t, rr).Image)

	t.Run("rejects non images", func(t *testing.T) {
		rr := e.call(e.h.PutMySignature, http.MethodPut, "/api/v1/me/signature",
			map[string]string{"image": "data:text/plain;base64,aGVsbG8="}, &e.tech, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("new work order is prefilled", func(t *testing.T) {
		rr := e.call(e.h.NewWorkOrder, http.MethodGet, "/api/v1/work-orders/new", nil, &e.tech, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		wo := decode[map[string]any](t, rr)
		assert.Equal(t, sig.Image, wo["technicianSignature"])
		assert.Equal(t, "2024-03-15", wo["date"])
		assert.Regexp(t, `^RN-20240315-\d{3}$`, wo["id"])
	})
}
