// Package handlers implements the HTTP API.
package handlers

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
	"p9e.in/workorders/middleware"
	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/metrics"
	"p9e.in/workorders/pkg/pdfexport"
	"p9e.in/workorders/pkg/signature"
	"p9e.in/workorders/pkg/storage"
	"p9e.in/workorders/repository"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	DB       *gorm.DB
	Sessions *middleware.Sessions
	Store    storage.Store
	// Geocoder is optional; leave nil to capture signatures without an address.
	Geocoder       signature.Geocoder
	FontDir        string
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	BcryptCost     int
	MaxUploadBytes int64
	Now            func() time.Time
}

// Handler carries the repositories and services behind the routes.
type Handler struct {
	db         *gorm.DB
	employees  *repository.EmployeeRepository
	workOrders *repository.WorkOrderRepository
	vehicles   *repository.CRUD[models.Vehicle]
	locations  *repository.CRUD[models.Location]
	settings   *repository.SettingsRepository
	signatures *repository.SignatureRepository

	sessions  *middleware.Sessions
	store     storage.Store
	geocoder  signature.Geocoder
	renderer  *pdfexport.Renderer
	metrics   *metrics.Metrics
	log       *slog.Logger
	cost      int
	maxUpload int64
	now       func() time.Time
}

func New(d Deps) *Handler {
	h := &Handler{
		db:         d.DB,
		employees:  repository.NewEmployeeRepository(d.DB),
		workOrders: repository.NewWorkOrderRepository(d.DB),
		vehicles:   repository.NewCRUD[models.Vehicle](d.DB, "registration"),
		locations:  repository.NewCRUD[models.Location](d.DB, "name"),
		settings:   repository.NewSettingsRepository(d.DB),
		signatures: repository.NewSignatureRepository(d.DB),
		sessions:   d.Sessions,
		store:      d.Store,
		geocoder:   d.Geocoder,
		metrics:    d.Metrics,
		log:        d.Logger,
		cost:       d.BcryptCost,
		maxUpload:  d.MaxUploadBytes,
		now:        d.Now,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	h.log = h.log.With("module", "handlers")
	if h.now == nil {
		h.now = time.Now
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 10 << 20
	}
	h.renderer = pdfexport.NewRenderer(pdfexport.Options{
		FontDir: d.FontDir,
		Loader:  pdfexport.Loader{Store: d.Store},
		Logger:  h.log.With("component", "pdf"),
		Now:     h.now,
	})
	return h
}
