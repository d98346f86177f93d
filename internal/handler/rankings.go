package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/service"
)

// Rankings is the read side the public endpoints need.
type Rankings interface {
	Query(ctx context.Context, f model.RankingFilters) (*model.Page[model.User], error)
	Lookup(ctx context.Context, login string) (*model.User, error)
	Ranked(ctx context.Context, login string) (*model.User, error)
	Countries() []model.Country
	Ping(ctx context.Context) error
}

// RankingsHandler serves the public read endpoints.
type RankingsHandler struct {
	rankings Rankings
	logger   *slog.Logger
}

func NewRankingsHandler(rankings Rankings, logger *slog.Logger) *RankingsHandler {
	return &RankingsHandler{rankings: rankings, logger: logger}
}

// RankingsResponse is a page of users. On failure Error is set and the
// page is empty; the shape is otherwise identical.
type RankingsResponse struct {
	Error string `json:"error,omitempty"`
	model.Page[model.User]
}

// HandleRankings returns one page of ranked users.
//
// HTTP: GET /api/github/rankings?type=&country=&page=&perPage=&sortBy=
func (h *RankingsHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		h.writeRankingsError(w, f, err)
		return
	}

	page, err := h.rankings.Query(r.Context(), f)
	if err != nil {
		h.writeRankingsError(w, f, err)
		return
	}
	writeJSON(w, http.StatusOK, RankingsResponse{Page: *page})
}

func (h *RankingsHandler) writeRankingsError(w http.ResponseWriter, f model.RankingFilters, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("rankings query failed", slog.String("error", err.Error()))
	}
	msg, _ := errorMessage(err, status, "Failed to fetch rankings")

	// Echo the requested window when it was usable, else the defaults.
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = service.DefaultPerPage
	}
	writeJSON(w, status, RankingsResponse{
		Error: msg,
		Page:  *model.NewPage[model.User](nil, 0, page, min(perPage, service.MaxPerPage)),
	})
}

// parseFilters reads the query string. Absent parameters take their
// defaults; present ones are passed through for the service to validate,
// except numbers that do not parse at all.
func parseFilters(r *http.Request) (model.RankingFilters, error) {
	q := r.URL.Query()
	f := service.DefaultFilters()

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		f.Type = v
	}
	if v := strings.TrimSpace(q.Get("country")); v != "" {
		f.Country = v
	}
	if v := strings.TrimSpace(q.Get("sortBy")); v != "" {
		f.SortBy = v
	}

	var err error
	if f.Page, err = intParam(q.Get("page"), f.Page, "page"); err != nil {
		f.Page = 1
		return f, err
	}
	if f.PerPage, err = intParam(q.Get("perPage"), f.PerPage, "perPage"); err != nil {
		f.PerPage = service.DefaultPerPage
		return f, err
	}
	return f, nil
}

func intParam(raw string, def int, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer; got %q", name, raw))
	}
	return n, nil
}

// HandleLookup enriches one user live from the GitHub API.
//
// HTTP: GET /api/github?username=
func (h *RankingsHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.URL.Query().Get("username"))
	if login == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Username is required"})
		return
	}

	u, err := h.rankings.Lookup(r.Context(), login)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		writeError(w, err, "Failed to fetch user data")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleRanked returns a user's stored stats from the last ingestion run.
//
// HTTP: GET /api/github/rankings/{login}
func (h *RankingsHandler) HandleRanked(w http.ResponseWriter, r *http.Request) {
	u, err := h.rankings.Ranked(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "User not ranked"})
			return
		}
		if statusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("reading ranked user failed", slog.String("error", err.Error()))
		}
		writeError(w, err, "Failed to fetch user data")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleCountries returns the reference country list.
//
// HTTP: GET /api/countries
func (h *RankingsHandler) HandleCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rankings.Countries())
}

// HandleHealth reports whether the store answers.
//
// HTTP: GET /healthz
func (h *RankingsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.rankings.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
