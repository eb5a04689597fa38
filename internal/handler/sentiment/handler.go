package sentiment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avelardi/supportlens/internal/service/analysis"
	"github.com/avelardi/supportlens/pkg/utils"
)

// Handler serves stateless transcript scoring. It bypasses the connection
// registry entirely and reuses the same analyzer and threshold logic as the
// live relay path.
type Handler struct {
	analyzer analysis.Analyzer
}

// New creates the sentiment handler.
func New(analyzer analysis.Analyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

// RegisterRoutes mounts the sentiment endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sentiment", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	sentimentResult, suggestions := h.analyzer.Analyze(r.Context(), payload.Text)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sentiment":   sentimentResult,
		"suggestions": suggestions,
	})
}
