package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/gh-rankings/internal/model"
)

// Ingester runs one ingestion pass. An empty query means the configured
// default.
type Ingester interface {
	Run(ctx context.Context, query string) (*model.IngestResult, error)
}

// CronHandler triggers ingestion runs. Authentication happens in the
// router, before this handler is reached.
type CronHandler struct {
	ingester Ingester
	logger   *slog.Logger
}

func NewCronHandler(ingester Ingester, logger *slog.Logger) *CronHandler {
	return &CronHandler{ingester: ingester, logger: logger}
}

// CronResponse is the body of a successful trigger.
type CronResponse struct {
	Success bool   `json:"success"`
	Updated int    `json:"updated"`
	RunID   string `json:"runId"`
	Failed  int    `json:"failed"`
}

// HandleUpdateRankings runs (or joins) an ingestion pass and reports how
// many users were stored.
//
// HTTP: GET /api/cron/update-rankings
func (h *CronHandler) HandleUpdateRankings(w http.ResponseWriter, r *http.Request) {
	res, err := h.ingester.Run(r.Context(), "")
	if err != nil {
		h.logger.Error("failed to update rankings", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to update rankings"})
		return
	}
	writeJSON(w, http.StatusOK, CronResponse{
		Success: true,
		Updated: res.Processed,
		RunID:   res.RunID,
		Failed:  res.Failed,
	})
}
