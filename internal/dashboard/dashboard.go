package dashboard

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	carbontracker "github.com/superdango/digital-carbon-tracker"
	"github.com/superdango/digital-carbon-tracker/internal/zones"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type Option func(d *Dashboard)

// WithDefaults sets workloads used when parameters are missing
func WithDefaults(w carbontracker.Workloads) Option {
	return func(d *Dashboard) {
		d.defaults = w
	}
}

// WithBounds sets accepted workload ranges
func WithBounds(b carbontracker.Bounds) Option {
	return func(d *Dashboard) {
		d.bounds = b
	}
}

// WithCatalog sets zones proposed to users
func WithCatalog(c *zones.Catalog) Option {
	return func(d *Dashboard) {
		d.catalog = c
	}
}

// Dashboard serves the emissions dashboard and its json api
type Dashboard struct {
	source   carbontracker.Source
	defaults carbontracker.Workloads
	bounds   carbontracker.Bounds
	catalog  *zones.Catalog
}

func New(source carbontracker.Source, opts ...Option) *Dashboard {
	d := &Dashboard{
		source:   source,
		defaults: carbontracker.DefaultWorkloads(),
		bounds:   carbontracker.DefaultBounds,
		catalog:  zones.Default,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Register adds dashboard routes to the mux
func (d *Dashboard) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", d.handleIndex)
	mux.HandleFunc("GET /api/v1/emissions", d.handleEmissions)
	mux.HandleFunc("GET /api/v1/zones", d.handleZones)
}

type page struct {
	Workloads carbontracker.Workloads
	Bounds    carbontracker.Bounds
	Zones     []zones.Zone
	Carbon    *carbontracker.CarbonData
	Report    *carbontracker.Report
	Chart     *barChart
	Error     string
}

func (d *Dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	p := page{
		Bounds: d.bounds,
		Zones:  d.catalog.All(),
	}

	status := http.StatusOK
	workloads, err := parseWorkloads(r.URL.Query(), d.defaults, d.bounds)
	p.Workloads = workloads
	if err != nil {
		status = http.StatusBadRequest
		p.Error = err.Error()
	}

	if err == nil {
		carbon := carbontracker.FetchCarbonData(r.Context(), d.source, workloads.Region)
		p.Carbon = &carbon

		if r.URL.Query().Has(paramCalculate) {
			report := carbontracker.Estimate(carbon, workloads)
			chart := newBarChart(report.Chart())
			p.Report = &report
			p.Chart = &chart
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, p); err != nil {
		slog.Error("failed to render dashboard", "err", err)
	}
}

type carbonResponse struct {
	Zone        string                       `json:"zone"`
	Intensity   float64                      `json:"intensity_gco2eq_kwh"`
	Breakdown   carbontracker.PowerBreakdown `json:"power_breakdown_percent"`
	Datetime    *time.Time                   `json:"datetime,omitempty"`
	IsEstimated bool                         `json:"is_estimated"`
	Available   bool                         `json:"available"`
	Error       string                       `json:"error,omitempty"`
}

type emissionsKg struct {
	AI         float64 `json:"ai_training"`
	Blockchain float64 `json:"blockchain"`
	Datacenter float64 `json:"data_center"`
	Total      float64 `json:"total"`
}

type emissionsResponse struct {
	Workloads   carbontracker.Workloads  `json:"workloads"`
	Carbon      carbonResponse           `json:"carbon"`
	Emissions   emissionsKg              `json:"emissions_kgco2eq"`
	Trees       float64                  `json:"trees_per_month"`
	Chart       []carbontracker.ChartBar `json:"chart"`
	DonationURL string                   `json:"donation_url"`
}

// NewEmissionsResponse converts a report to its json representation
func NewEmissionsResponse(report carbontracker.Report) any {
	carbon := carbonResponse{
		Zone:        report.Carbon.Zone,
		Intensity:   float64(report.Carbon.Intensity),
		Breakdown:   report.Carbon.Breakdown,
		IsEstimated: report.Carbon.IsEstimated,
		Available:   report.Carbon.Available(),
	}
	if !report.Carbon.Datetime.IsZero() {
		carbon.Datetime = &report.Carbon.Datetime
	}
	if report.Carbon.Err != nil {
		carbon.Error = report.Carbon.Err.Error()
	}

	return emissionsResponse{
		Workloads: report.Workloads,
		Carbon:    carbon,
		Emissions: emissionsKg{
			AI:         report.AI.KgCO2eq(),
			Blockchain: report.Blockchain.KgCO2eq(),
			Datacenter: report.Datacenter.KgCO2eq(),
			Total:      report.Total.KgCO2eq(),
		},
		Trees:       report.Trees,
		Chart:       report.Chart(),
		DonationURL: report.DonationURL,
	}
}

func (d *Dashboard) handleEmissions(w http.ResponseWriter, r *http.Request) {
	workloads, err := parseWorkloads(r.URL.Query(), d.defaults, d.bounds)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := carbontracker.Calculate(r.Context(), d.source, workloads)
	jsonResponse(w, http.StatusOK, NewEmissionsResponse(report))
}

func (d *Dashboard) handleZones(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonResponse(w, http.StatusOK, d.catalog.All())
		return
	}
	jsonResponse(w, http.StatusOK, d.catalog.Lookup(query))
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to write json response", "err", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

// LogRequests logs every served request
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request served", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr, "duration_ms", time.Since(start).Milliseconds())
	})
}
