package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Services carries the application services the router exposes.
type Services struct {
	Zones   ZoneService
	Spots   SpotService
	Ledger  LedgerService
	Reports ReportService
}

// RouterOptions configures the cross-cutting middleware stack.
type RouterOptions struct {
	Logger zerolog.Logger
	// CORSOrigins is the allow-list handed to the CORS middleware.
	CORSOrigins []string
	// StoreTimeout bounds each request's context. A store call that
	// outlives it surfaces as 503.
	StoreTimeout time.Duration
	// Registry receives the HTTP metrics and backs /metrics. A nil
	// registry disables instrumentation.
	Registry *prometheus.Registry
}

// NewRouter wires every endpoint behind logging, CORS, metrics and the
// request timeout.
func NewRouter(svcs Services, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(opts.Logger))
	r.Use(CORS(opts.CORSOrigins))
	if opts.Registry != nil {
		metrics := NewMetrics(opts.Registry)
		r.Use(metrics.Middleware)
	}
	if opts.StoreTimeout > 0 {
		r.Use(middleware.Timeout(opts.StoreTimeout))
	}

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.Get("/health", HealthHandler)
	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/zones", func(r chi.Router) {
		r.Post("/", HandleCreateZone(svcs.Zones))
		r.Get("/", HandleListZones(svcs.Zones))
		r.Get("/{id}", HandleGetZone(svcs.Zones))
		r.Put("/{id}", HandleUpdateZone(svcs.Zones))
		r.Delete("/{id}", HandleDeleteZone(svcs.Zones))
	})

	r.Route("/spots", func(r chi.Router) {
		r.Post("/", HandleCreateSpot(svcs.Spots))
		r.Post("/bulk", HandleCreateSpotsBulk(svcs.Spots))
		r.Get("/", HandleListSpots(svcs.Spots))
		r.Get("/{id}", HandleGetSpot(svcs.Spots))
		r.Delete("/{id}", HandleDeleteSpot(svcs.Spots))
	})

	r.Route("/records", func(r chi.Router) {
		r.Post("/entry", HandleRecordEntry(svcs.Ledger))
		r.Post("/{id}/exit", HandleRecordExit(svcs.Ledger))
		r.Get("/active", HandleListActive(svcs.Ledger))
		r.Get("/history", HandleListHistory(svcs.Ledger))
		r.Get("/plate/{plate}", HandleListByPlate(svcs.Ledger))
		r.Get("/{id}", HandleGetRecord(svcs.Ledger))
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/occupancy", HandleOccupancyReport(svcs.Reports))
		r.Get("/revenue", HandleDailyRevenue(svcs.Reports))
	})

	return r
}
