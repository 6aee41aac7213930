package routes

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"p9e.in/workorders/handlers"
	"p9e.in/workorders/middleware"
	"p9e.in/workorders/pkg/metrics"
)

// uuidPattern keeps /work-orders/new and /work-orders/export.xlsx from
// matching the {id} routes.
const uuidPattern = "{id:[0-9a-fA-F-]{36}}"

// Options are the pieces the route table wires together.
type Options struct {
	Handler     *handlers.Handler
	Sessions    *middleware.Sessions
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	// UploadDir is served at UploadURLPrefix when files are kept on local disk.
	UploadDir       string
	UploadURLPrefix string
}

// RegisterRoutes sets up all application routes.
func RegisterRoutes(o Options) http.Handler {
	h := o.Handler
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(middleware.Observe(log.With("module", "http"), o.Metrics))

	// =====================================================
	// Public routes (no authentication)
	// =====================================================
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", o.Metrics.Handler()).Methods(http.MethodGet)

	limit := func(next http.Handler) http.Handler { return next }
	if o.RateLimiter != nil {
		limit = o.RateLimiter.Middleware()
	}
	r.Handle("/login", limit(http.HandlerFunc(h.Login))).Methods(http.MethodPost)

	if o.UploadDir != "" {
		prefix := strings.TrimRight(o.UploadURLPrefix, "/") + "/"
		if prefix == "/" {
			prefix = "/uploads/"
		}
		r.PathPrefix(prefix).Handler(
			http.StripPrefix(prefix, http.FileServer(http.Dir(o.UploadDir))),
		)
	}

	// =====================================================
	// Protected API routes (require a session)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(limit, o.Sessions.RequireAuth)

	r.Handle("/logout", limit(o.Sessions.RequireAuth(http.HandlerFunc(h.Logout)))).Methods(http.MethodPost)
	api.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	api.HandleFunc("/me/signature", h.GetMySignature).Methods(http.MethodGet)
	api.HandleFunc("/me/signature", h.PutMySignature).Methods(http.MethodPut)

	registerWorkOrderRoutes(api, h)

	api.Handle("/signatures", gate("workorder:update", h.CaptureSignature)).Methods(http.MethodPost)
	api.Handle("/files", gate("workorder:update", h.UploadFile)).Methods(http.MethodPost)

	api.Handle("/vehicles", gate("vehicle:read", h.Vehicles().List)).Methods(http.MethodGet)
	api.Handle("/locations", gate("location:read", h.ListLocations)).Methods(http.MethodGet)
	api.Handle("/settings", gate("settings:read", h.GetSettings)).Methods(http.MethodGet)

	// =====================================================
	// Admin routes
	// =====================================================
	admin := api.PathPrefix("/admin").Subrouter()
	registerAdminRoutes(admin, h)

	return middleware.CORS(o.CORSOrigins)(r)
}

func gate(permission string, fn http.HandlerFunc) http.Handler {
	return middleware.RequirePermission(permission)(fn)
}

func registerWorkOrderRoutes(api *mux.Router, h *handlers.Handler) {
	wo := api.PathPrefix("/work-orders").Subrouter()
	wo.Handle("", gate("workorder:read", h.ListWorkOrders)).Methods(http.MethodGet)
	wo.Handle("/new", gate("workorder:create", h.NewWorkOrder)).Methods(http.MethodGet)
	wo.Handle("/export.xlsx", gate("workorder:export", h.ExportWorkOrders)).Methods(http.MethodGet)
	wo.Handle("/draft", gate("workorder:create", h.EditDraft)).Methods(http.MethodPost)
	wo.Handle("/preview.pdf", gate("workorder:create", h.PreviewWorkOrderPDF)).Methods(http.MethodPost)
	wo.Handle("", gate("workorder:create", h.CreateWorkOrder)).Methods(http.MethodPost)
	wo.Handle("/"+uuidPattern, gate("workorder:read", h.GetWorkOrder)).Methods(http.MethodGet)
	wo.Handle("/"+uuidPattern, gate("workorder:update", h.UpdateWorkOrder)).Methods(http.MethodPut)
	wo.Handle("/"+uuidPattern, gate("workorder:update", h.PatchWorkOrder)).Methods(http.MethodPatch)
	wo.Handle("/"+uuidPattern, gate("workorder:delete", h.DeleteWorkOrder)).Methods(http.MethodDelete)
	wo.Handle("/"+uuidPattern+"/pdf", gate("workorder:read", h.WorkOrderPDF)).Methods(http.MethodGet)
}

func registerAdminRoutes(admin *mux.Router, h *handlers.Handler) {
	admin.Handle("/employees", gate("employee:read", h.ListEmployees)).Methods(http.MethodGet)
	admin.Handle("/employees", gate("employee:create", h.CreateEmployee)).Methods(http.MethodPost)
	admin.Handle("/employees/"+uuidPattern, gate("employee:read", h.GetEmployee)).Methods(http.MethodGet)
	admin.Handle("/employees/"+uuidPattern, gate("employee:update", h.UpdateEmployee)).Methods(http.MethodPut)
	admin.Handle("/employees/"+uuidPattern, gate("employee:delete", h.DeleteEmployee)).Methods(http.MethodDelete)

	vehicles := h.Vehicles()
	admin.Handle("/vehicles", gate("vehicle:read", vehicles.List)).Methods(http.MethodGet)
	admin.Handle("/vehicles", gate("vehicle:create", vehicles.Create)).Methods(http.MethodPost)
	admin.Handle("/vehicles/"+uuidPattern, gate("vehicle:read", vehicles.Get)).Methods(http.MethodGet)
	admin.Handle("/vehicles/"+uuidPattern, gate("vehicle:update", vehicles.Update)).Methods(http.MethodPut)
	admin.Handle("/vehicles/"+uuidPattern, gate("vehicle:delete", vehicles.Delete)).Methods(http.MethodDelete)

	locations := h.Locations()
	admin.Handle("/locations", gate("location:read", h.ListLocations)).Methods(http.MethodGet)
	admin.Handle("/locations", gate("location:create", locations.Create)).Methods(http.MethodPost)
	admin.Handle("/locations/"+uuidPattern, gate("location:read", locations.Get)).Methods(http.MethodGet)
	admin.Handle("/locations/"+uuidPattern, gate("location:update", locations.Update)).Methods(http.MethodPut)
	admin.Handle("/locations/"+uuidPattern, gate("location:delete", locations.Delete)).Methods(http.MethodDelete)

	admin.Handle("/settings", gate("settings:read", h.GetSettings)).Methods(http.MethodGet)
	admin.Handle("/settings", gate("settings:update", h.PutSettings)).Methods(http.MethodPut)
}
