package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	reportDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/report"
)

type Repository interface {
	TopReceivers(from, to time.Time, limit int) ([]*RankingEntry, error)
	TopSenders(from, to time.Time, limit int) ([]*RankingEntry, error)
	MostLiked(from, to time.Time, limit int) ([]*RankingEntry, error)
	MonthlyTotals(from, to time.Time) ([]*MonthlyTotal, error)
	UpsertMonthlySummaries(summaries []*reportDatamodel.MonthlySummary) error
	GetMonthlySummaries(year, month int) ([]*reportDatamodel.MonthlySummary, error)
	ExportRows(from, to time.Time, department string) ([]*ExportRow, error)
}

// Recorder is satisfied by the audit service.
type Recorder interface {
	Record(ctx context.Context, action string, actorID string, payload map[string]interface{}) error
}

// Service aggregates the ledger into leaderboards, monthly summaries and
// CSV exports. It only reads transfer rows; it never mutates them.
type Service struct {
	repo     Repository
	recorder Recorder
	logger   *slog.Logger
}

const defaultRankingSize = 10

func NewService(repo Repository, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// Rankings builds the three leaderboards for [from, to).
func (s *Service) Rankings(from, to time.Time, limit int) (*Rankings, error) {
	if !to.After(from) {
		return nil, ErrInvalidPeriod
	}
	if limit <= 0 || limit > 100 {
		limit = defaultRankingSize
	}

	receivers, err := s.repo.TopReceivers(from, to, limit)
	if err != nil {
		return nil, err
	}
	senders, err := s.repo.TopSenders(from, to, limit)
	if err != nil {
		return nil, err
	}
	liked, err := s.repo.MostLiked(from, to, limit)
	if err != nil {
		return nil, err
	}

	return &Rankings{
		From:         from.UTC().Format("2006-01-02"),
		To:           to.UTC().Format("2006-01-02"),
		TopReceivers: receivers,
		TopSenders:   senders,
		MostLiked:    liked,
	}, nil
}

// CloseMonth materializes per-employee totals for a calendar month into
// monthly_summaries. Re-running the close for the same month overwrites the
// previous snapshot, so a late-arriving correction just needs another run.
func (s *Service) CloseMonth(ctx context.Context, actorID string, year int, month time.Month) (int, error) {
	if year < 2000 || month < time.January || month > time.December {
		return 0, ErrInvalidPeriod
	}

	from, to := MonthBounds(year, month)
	totals, err := s.repo.MonthlyTotals(from, to)
	if err != nil {
		return 0, err
	}

	summaries := make([]*reportDatamodel.MonthlySummary, 0, len(totals))
	for _, t := range totals {
		summaries = append(summaries, &reportDatamodel.MonthlySummary{
			Year:          year,
			Month:         int(month),
			EmployeeID:    t.EmployeeID,
			ReceivedCoins: t.ReceivedCoins,
			SentCoins:     t.SentCoins,
			Likes:         t.Likes,
		})
	}

	if err := s.repo.UpsertMonthlySummaries(summaries); err != nil {
		return 0, err
	}

	s.logger.Info("monthly close complete",
		"year", year, "month", int(month), "employees", len(summaries))

	if err := s.recorder.Record(ctx, audit.ActionMonthlyClosed, actorID, map[string]interface{}{
		"year":      year,
		"month":     int(month),
		"employees": len(summaries),
	}); err != nil {
		s.logger.Error("audit write for monthly close failed", "error", err)
	}

	return len(summaries), nil
}

// MonthlySummaries returns the stored snapshot for a closed month.
func (s *Service) MonthlySummaries(year, month int) ([]*reportDatamodel.MonthlySummary, error) {
	if year < 2000 || month < 1 || month > 12 {
		return nil, ErrInvalidPeriod
	}
	return s.repo.GetMonthlySummaries(year, month)
}

// ExportCSV streams transfer rows for a period as CSV. department filters to
// rows where either side belongs to it; empty means all.
func (s *Service) ExportCSV(w io.Writer, from, to time.Time, department string) error {
	if !to.After(from) {
		return ErrInvalidPeriod
	}

	rows, err := s.repo.ExportRows(from, to, department)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"transaction_id", "created_at", "sender", "sender_department",
		"receiver", "receiver_department", "coins", "message", "is_bonus", "likes"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.TransactionID,
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.SenderName,
			row.SenderDept,
			row.ReceiverName,
			row.ReceiverDept,
			strconv.Itoa(row.Coins),
			row.Message,
			fmt.Sprintf("%t", row.IsBonus),
			strconv.Itoa(row.Likes),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
