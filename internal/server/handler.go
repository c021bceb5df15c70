package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"StockRanker/internal/analysis"
	"StockRanker/internal/fred"
	"StockRanker/internal/model"
	"StockRanker/internal/recorder"
)

// Analyser is the service surface used by the API.
type Analyser interface {
	RankedAnalysis(ctx context.Context, useCache bool) ([]model.AnalysedStock, error)
	StockHistory(ctx context.Context, ticker string) (model.StockSeries, error)
	RecentRuns(limit int) ([]recorder.RunSummary, error)
}

// PortfolioStore reads and replaces the watch list.
type PortfolioStore interface {
	Load() ([]string, error)
	Save(list []string) error
}

// SeriesSource looks up economic series. It may be nil.
type SeriesSource interface {
	Series(ctx context.Context, code string) (*fred.Series, error)
}

// APIHandler handles HTTP API requests.
type APIHandler struct {
	svc       Analyser
	portfolio PortfolioStore
	fred      SeriesSource
	hub       *Hub
	log       zerolog.Logger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(svc Analyser, portfolio PortfolioStore, fred SeriesSource, hub *Hub, log zerolog.Logger) *APIHandler {
	return &APIHandler{
		svc:       svc,
		portfolio: portfolio,
		fred:      fred,
		hub:       hub,
		log:       log.With().Str("component", "api").Logger(),
	}
}

func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]any{
		"status":     "ok",
		"ws_clients": h.hub.Clients(),
	})
}

// handleAnalysis runs the ranked analysis. ?cache=false forces a refetch;
// ?top=N limits the result.
func (h *APIHandler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	useCache := true
	if v := r.URL.Query().Get("cache"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.jsonError(w, "cache must be true or false", http.StatusBadRequest)
			return
		}
		useCache = b
	}
	top := h.parseIntParam(r, "top", -1)

	ranked, err := h.svc.RankedAnalysis(r.Context(), useCache)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonResponse(w, analysis.Top(ranked, top))
}

func (h *APIHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	series, err := h.svc.StockHistory(r.Context(), ticker)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonResponse(w, series)
}

func (h *APIHandler) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	list, err := h.portfolio.Load()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, list)
}

func (h *APIHandler) handlePutPortfolio(w http.ResponseWriter, r *http.Request) {
	var list []string
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		h.jsonError(w, "body must be a JSON array of strings", http.StatusBadRequest)
		return
	}
	for _, e := range list {
		if strings.ContainsAny(e, "\r\n") {
			h.jsonError(w, "entries must be single lines", http.StatusBadRequest)
			return
		}
	}
	if err := h.portfolio.Save(list); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, list)
}

func (h *APIHandler) handleFred(w http.ResponseWriter, r *http.Request) {
	if h.fred == nil {
		h.jsonError(w, "FRED is not configured", http.StatusNotImplemented)
		return
	}
	s, err := h.fred.Series(r.Context(), chi.URLParam(r, "series"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonResponse(w, s)
}

func (h *APIHandler) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.RecentRuns(h.parseIntParam(r, "limit", 20))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	h.jsonResponse(w, runs)
}

func (h *APIHandler) parseIntParam(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

// serviceError maps the error kinds onto HTTP statuses.
func (h *APIHandler) serviceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrAuth), errors.Is(err, model.ErrNetwork), errors.Is(err, model.ErrParse):
		status = http.StatusBadGateway
	}
	h.log.Error().Err(err).Int("status", status).Msg("request failed")
	h.jsonError(w, err.Error(), status)
}

func (h *APIHandler) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("encode response")
	}
}

func (h *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
