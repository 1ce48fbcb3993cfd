// handlers/report_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gewnthar/flightbrief/models"
	"github.com/gewnthar/flightbrief/services"
)

// Preparer computes a report without delivering it.
type Preparer interface {
	Prepare(ctx context.Context, kind models.ReportKind) (*services.RunSummary, error)
}

// ReportHandler serves previews of the notification reports.
type ReportHandler struct {
	runner Preparer
}

func NewReportHandler(runner Preparer) *ReportHandler {
	return &ReportHandler{runner: runner}
}

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling JSON response: %v", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("API Error %d: %s", code, message)
	respondWithJSON(w, code, map[string]string{"error": message})
}

// HealthHandler answers GET /api/health.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "flightbrief is healthy"})
}

type reportResponse struct {
	*models.Report
	Summary   string `json:"summary"`
	ChartPath string `json:"chart_path,omitempty"`
}

// ServeHTTP handles GET /api/report/{kind} and GET /api/report/{kind}/chart.png
// where {kind} is "departures" or "arrivals". Every request fetches a fresh
// snapshot; nothing is sent.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// Expected path: api/report/{kind}[/chart.png]
	// pathParts: ["api", "report", "{kind}", ("chart.png")]
	if len(pathParts) < 3 || len(pathParts) > 4 {
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/report/{kind} or /api/report/{kind}/chart.png")
		return
	}
	var kind models.ReportKind
	switch strings.ToLower(pathParts[2]) {
	case "departures":
		kind = models.DeparturesReport
	case "arrivals":
		kind = models.ArrivalsReport
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid report kind '%s'. Use 'departures' or 'arrivals'.", pathParts[2]))
		return
	}
	wantChart := len(pathParts) == 4
	if wantChart && pathParts[3] != "chart.png" {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Unknown resource '%s'", pathParts[3]))
		return
	}

	summary, err := h.runner.Prepare(r.Context(), kind)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, fmt.Sprintf("Failed to prepare %s report: %v", kind, err))
		return
	}

	if wantChart {
		if summary.Chart == nil {
			respondWithError(w, http.StatusInternalServerError, "Chart rendering failed")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(summary.Chart)
		return
	}

	resp := reportResponse{Report: summary.Report, Summary: services.Summary(summary.Report)}
	if summary.Chart != nil {
		resp.ChartPath = fmt.Sprintf("/api/report/%s/chart.png", kind)
	}
	respondWithJSON(w, http.StatusOK, resp)
}
