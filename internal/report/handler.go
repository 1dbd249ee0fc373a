package report

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	internal "github.com/akira-ishikawa-jpg/coin-system/internal"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport"
	"github.com/akira-ishikawa-jpg/coin-system/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// GetRankings serves the leaderboards. from/to default to the last 30 days.
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	from, to, err := periodFromQuery(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}

	rankings, err := h.Service.Rankings(from, to, limit)
	if err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, rankings)
}

// GetMonthlySummaries serves the stored snapshot for a closed month.
func (h *Handler) GetMonthlySummaries(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))

	summaries, err := h.Service.MonthlySummaries(year, month)
	if err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"year":      year,
		"month":     month,
		"summaries": summaries,
	})
}

// ExportCSV streams a CSV of transfers for the period.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	from, to, err := periodFromQuery(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	department := r.URL.Query().Get("department")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="transfers_%s_%s.csv"`,
			from.Format("20060102"), to.Format("20060102")))

	if err := h.Service.ExportCSV(w, from, to, department); err != nil {
		// Headers may already be out; log and stop the stream.
		h.Logger.Error("ExportCSV: stream failed", "error", err)
	}
}

func periodFromQuery(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
		// Inclusive end date in the query, exclusive bound internally.
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func mapDomainError(err error) error {
	if errors.Is(err, ErrInvalidPeriod) {
		return internal.NewValidationError("invalid reporting period", internal.ErrCodeValidationFailed)
	}
	return err
}
