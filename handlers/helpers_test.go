package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/workorders/config"
	"p9e.in/workorders/middleware"
	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/pdfexport"
	"p9e.in/workorders/pkg/storage"
	"p9e.in/workorders/repository"
)

const testPassword = "tajna-lozinka"

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type env struct {
	t        *testing.T
	db       *gorm.DB
	h        *Handler
	sessions *middleware.Sessions
	store    *storage.Local

	admin, lead, tech, other models.Employee
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := config.Connect(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:",
		LogLevel:     "silent",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	e := &env{
		t:        t,
		db:       db,
		sessions: middleware.NewSessions("test-secret", time.Hour),
		store:    store,
	}
	e.h = New(Deps{
		DB:         db,
		Sessions:   e.sessions,
		Store:      store,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return testNow },
	})

	e.admin = e.employee("admin@firma.hr", models.RoleAdmin, nil)
	e.lead = e.employee("lead@firma.hr", models.RoleLead, nil)
	e.tech = e.employee("tech@firma.hr", models.RoleTechnician, &e.lead.ID)
	e.other = e.employee("other@firma.hr", models.RoleTechnician, nil)
	return e
}

func (e *env) employee(email string, role models.Role, manager *uuid.UUID) models.Employee {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(e.t, err)
	emp := models.Employee{
		FirstName:    "Ime",
		LastName:     email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		ManagerID:    manager,
		IsActive:     true,
	}
	require.NoError(e.t, repository.NewEmployeeRepository(e.db).Create(context.Background(), &emp))
	return emp
}

// call runs fn as emp (nil for anonymous) with the given mux vars.
func (e *env) call(fn http.HandlerFunc, method, target string, body any, as *models.Employee, vars map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	if as != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), &middleware.Session{
			EmployeeID: as.ID,
			Email:      as.Email,
			Role:       as.Role,
		}))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rr := httptest.NewRecorder()
	fn(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// validOrder passes validation with no issues at all.
func validOrder() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"companyName":    "Klijent d.o.o.",
			"companyAddress": "Ilica 1, Zagreb, Hrvatska",
			"oib":            "12345678901",
			"firstName":      "Ana",
			"lastName":       "Kovač",
			"mobile":         "091 123 4567",
			"email":          "ana@klijent.hr",
		},
		"description":    []map[string]string{{"id": "1", "text": "Ne radi grijanje"}},
		"performedWork":  []map[string]string{{"id": "2", "text": "Zamijenjen ventil"}},
		"materials":      []map[string]string{{"id": "m1", "name": "Ventil", "quantity": "2", "unit": "kom"}},
		"date":           "2024-03-15",
		"arrivalTime":    "08:00",
		"completionTime": "10:30",
	}
}

func mustDecodeDataURL(t *testing.T, ref string) []byte {
	t.Helper()
	raw, err := pdfexport.DecodeDataURL(ref)
	require.NoError(t, err)
	return raw
}
