package web

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/justestif/go-sparkify/internal/dashboard"
	"github.com/justestif/go-sparkify/internal/logging"
)

// DefaultTableRows is the number of rows shown per table preview.
const DefaultTableRows = 5

// Handlers contains HTTP handlers for the dashboard.
type Handlers struct {
	templates  *Templates
	aggregates dashboard.Aggregates
	home       HomePageData
}

// NewHandlers creates handlers over read-only tables. Previews and
// aggregates are computed once.
func NewHandlers(tables *dashboard.Tables, templates *Templates, tableRows, topN int) *Handlers {
	if tableRows <= 0 {
		tableRows = DefaultTableRows
	}
	agg := tables.Aggregate(topN)
	return &Handlers{
		templates:  templates,
		aggregates: agg,
		home: HomePageData{
			PageData: PageData{Title: "Sparkify"},
			Counts:   tableCounts(tables),
			Previews: tables.Previews(tableRows),
			Charts: []ChartData{
				newChart("Top listeners", agg.TopUsers),
				newChart("Plays by level", agg.ByLevel),
				newChart("Plays by gender", agg.ByGender),
			},
			Total: agg.Total,
		},
	}
}

// Home renders the dashboard page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := h.home
	data.CurrentPath = r.URL.Path

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		logging.Error().Err(err).Msg("render home")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// Aggregates returns the chart data as JSON (GET /api/aggregates).
func (h *Handlers) Aggregates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.aggregates); err != nil {
		logging.Error().Err(err).Msg("encode aggregates")
	}
}

// Health reports liveness (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
