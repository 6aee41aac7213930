// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing,
// which keeps tests and one-off commands free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	workOrders        *prometheus.CounterVec
	pdfExports        *prometheus.CounterVec
	signatureCaptures *prometheus.CounterVec
	geocodeRequests   *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates a registry with the service collectors plus the Go runtime
// and process collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		workOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workorders_saved_total",
			Help: "Work orders written, by operation",
		}, []string{"operation"}), // operation: create, update, delete
		pdfExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workorders_pdf_exports_total",
			Help: "PDF exports, by result",
		}, []string{"result"}),
		signatureCaptures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workorders_signature_captures_total",
			Help: "Customer signature captures, by location outcome",
		}, []string{"location"}), // location: located, geocoded, unavailable
		geocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workorders_geocode_requests_total",
			Help: "Reverse geocoding lookups, by result",
		}, []string{"result"}), // result: ok, cached, error
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
	}

	for _, c := range []prometheus.Collector{
		m.workOrders,
		m.pdfExports,
		m.signatureCaptures,
		m.geocodeRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

func (m *Metrics) WorkOrderSaved(operation string) {
	if m == nil {
		return
	}
	m.workOrders.WithLabelValues(operation).Inc()
}

func (m *Metrics) PDFExport(err error) {
	if m == nil {
		return
	}
	m.pdfExports.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) SignatureCaptured(location string) {
	if m == nil {
		return
	}
	m.signatureCaptures.WithLabelValues(location).Inc()
}

func (m *Metrics) GeocodeRequest(result string) {
	if m == nil {
		return
	}
	m.geocodeRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
