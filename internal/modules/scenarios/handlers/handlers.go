// Package handlers provides HTTP handlers for scenario management and the
// performance endpoints that run the backtest engine over a scenario.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
	"github.com/aristath/stockdash/internal/modules/performance"
	"github.com/aristath/stockdash/internal/modules/scenarios"
)

// Handler handles scenario HTTP requests
type Handler struct {
	service  *scenarios.Service
	analyzer *performance.Service
	log      zerolog.Logger
}

// NewHandler creates a new scenario handler
func NewHandler(service *scenarios.Service, analyzer *performance.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		analyzer: analyzer,
		log:      log.With().Str("handler", "scenarios").Logger(),
	}
}

// createScenarioRequest is the scenario creation payload
type createScenarioRequest struct {
	Name           string  `json:"name"`
	InitialCapital float64 `json:"initial_capital"`
	AnalysisPeriod string  `json:"analysis_period,omitempty"`
}

// HandleCreate creates a new scenario
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var period marketdata.Period
	if req.AnalysisPeriod != "" {
		var err error
		period, err = marketdata.ParsePeriod(req.AnalysisPeriod)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	scenario, err := h.service.Create(req.Name, req.InitialCapital, period)
	if err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, scenario)
}

// HandleList returns all scenarios
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": list})
}

// HandleGet returns a single scenario
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, scenario)
}

// HandleDelete removes a scenario
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// addHoldingRequest is the holding creation payload
type addHoldingRequest struct {
	Ticker        string   `json:"ticker"`
	Allocation    float64  `json:"allocation"`
	Shares        *float64 `json:"shares,omitempty"`
	PurchasePrice *float64 `json:"purchase_price,omitempty"`
}

// HandleAddHolding adds a holding to a scenario
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	var req addHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.AddHolding(id, req.Ticker, req.Allocation, req.Shares, req.PurchasePrice); err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return
	}

	scenario, err := h.service.Get(id)
	if err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, scenario)
}

// HandleRemoveHolding removes a holding from a scenario
func (h *Handler) HandleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ticker := chi.URLParam(r, "ticker")

	if err := h.service.RemoveHolding(id, ticker); err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// HandleSummary returns the live valuation of a scenario
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandlePerformance backtests a scenario. ?period= overrides the stored
// analysis period; ?format=csv returns the flat metric table as CSV.
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	scenario, period, ok := h.scenarioAndPeriod(w, r)
	if !ok {
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), scenario.Weights(), scenario.InitialCapital, period)
	if err != nil {
		h.writeError(w, analysisStatus(err), err.Error())
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.writeCSV(w, scenario.Name, analysis.Result.FlatTable())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario_id": scenario.ID,
		"period":      period.String(),
		"analysis":    analysis,
	})
}

// HandleVsBenchmark backtests a scenario against a benchmark index.
// ?benchmark= overrides the default index.
func (h *Handler) HandleVsBenchmark(w http.ResponseWriter, r *http.Request) {
	scenario, period, ok := h.scenarioAndPeriod(w, r)
	if !ok {
		return
	}

	benchmark := r.URL.Query().Get("benchmark")

	comparison, err := h.analyzer.CompareWithBenchmark(r.Context(), scenario.Weights(), scenario.InitialCapital, period, benchmark)
	if err != nil {
		h.writeError(w, analysisStatus(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario_id": scenario.ID,
		"period":      period.String(),
		"comparison":  comparison,
	})
}

// scenarioAndPeriod loads the scenario and resolves the analysis period
// from the query override or the stored default. On failure it writes the
// error response and reports false.
func (h *Handler) scenarioAndPeriod(w http.ResponseWriter, r *http.Request) (*scenarios.Scenario, marketdata.Period, bool) {
	scenario, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, scenarioStatus(err), err.Error())
		return nil, marketdata.Period{}, false
	}

	period := scenario.AnalysisPeriod
	if p := r.URL.Query().Get("period"); p != "" {
		period, err = marketdata.ParsePeriod(p)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return nil, marketdata.Period{}, false
		}
	}
	if period.IsZero() {
		period = marketdata.Period1Y
	}

	return scenario, period, true
}

func (h *Handler) writeCSV(w http.ResponseWriter, name string, rows []performance.MetricRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`-performance.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := performance.WriteCSV(w, rows); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV response")
	}
}

// scenarioStatus maps scenario store errors to HTTP status codes
func scenarioStatus(err error) int {
	switch {
	case errors.Is(err, scenarios.ErrNotFound), errors.Is(err, scenarios.ErrHoldingNotFound):
		return http.StatusNotFound
	case errors.Is(err, scenarios.ErrDuplicateName), errors.Is(err, scenarios.ErrDuplicateHolding):
		return http.StatusConflict
	case errors.Is(err, scenarios.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// analysisStatus maps backtest errors to HTTP status codes
func analysisStatus(err error) int {
	switch {
	case errors.Is(err, performance.ErrInsufficientData), errors.Is(err, performance.ErrEmptyReturnSeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, marketdata.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
