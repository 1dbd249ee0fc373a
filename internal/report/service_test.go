package report_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	reportDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/report"
	"github.com/akira-ishikawa-jpg/coin-system/internal/report"
)

// Mock repository with canned aggregates.
type mockReportRepository struct {
	receivers []*report.RankingEntry
	senders   []*report.RankingEntry
	liked     []*report.RankingEntry
	totals    []*report.MonthlyTotal
	exports   []*report.ExportRow

	upserted map[string][]*reportDatamodel.MonthlySummary
}

func newMockReportRepository() *mockReportRepository {
	return &mockReportRepository{upserted: make(map[string][]*reportDatamodel.MonthlySummary)}
}

func (m *mockReportRepository) TopReceivers(from, to time.Time, limit int) ([]*report.RankingEntry, error) {
	return m.receivers, nil
}

func (m *mockReportRepository) TopSenders(from, to time.Time, limit int) ([]*report.RankingEntry, error) {
	return m.senders, nil
}

func (m *mockReportRepository) MostLiked(from, to time.Time, limit int) ([]*report.RankingEntry, error) {
	return m.liked, nil
}

func (m *mockReportRepository) MonthlyTotals(from, to time.Time) ([]*report.MonthlyTotal, error) {
	return m.totals, nil
}

func (m *mockReportRepository) UpsertMonthlySummaries(summaries []*reportDatamodel.MonthlySummary) error {
	if len(summaries) == 0 {
		return nil
	}
	key := summaryKey(summaries[0].Year, summaries[0].Month)
	m.upserted[key] = summaries
	return nil
}

func (m *mockReportRepository) GetMonthlySummaries(year, month int) ([]*reportDatamodel.MonthlySummary, error) {
	return m.upserted[summaryKey(year, month)], nil
}

func (m *mockReportRepository) ExportRows(from, to time.Time, department string) ([]*report.ExportRow, error) {
	if department == "" {
		return m.exports, nil
	}
	out := make([]*report.ExportRow, 0)
	for _, row := range m.exports {
		if row.SenderDept == department || row.ReceiverDept == department {
			out = append(out, row)
		}
	}
	return out, nil
}

func summaryKey(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

type mockCloseRecorder struct {
	actions []string
}

func (m *mockCloseRecorder) Record(ctx context.Context, action, actorID string, payload map[string]interface{}) error {
	m.actions = append(m.actions, action)
	return nil
}

var _ = Describe("ReportService", func() {
	var (
		service  *report.Service
		mockRepo *mockReportRepository
		recorder *mockCloseRecorder
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockReportRepository()
		recorder = &mockCloseRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = report.NewService(mockRepo, recorder, logger)
		ctx = context.Background()
	})

	Describe("Rankings", func() {
		It("should bundle the three leaderboards with the period bounds", func() {
			// Given
			mockRepo.receivers = []*report.RankingEntry{{EmployeeID: "bob", Name: "Bob", Total: 120}}
			mockRepo.senders = []*report.RankingEntry{{EmployeeID: "alice", Name: "Alice", Total: 200}}
			from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

			// When
			rankings, err := service.Rankings(from, to, 10)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(rankings.From).To(Equal("2026-08-01"))
			Expect(rankings.To).To(Equal("2026-09-01"))
			Expect(rankings.TopReceivers).To(HaveLen(1))
			Expect(rankings.TopSenders[0].Total).To(Equal(200))
		})

		It("should reject an inverted period", func() {
			// Given
			from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

			// When
			_, err := service.Rankings(from, to, 10)

			// Then
			Expect(err).To(MatchError(report.ErrInvalidPeriod))
		})
	})

	Describe("CloseMonth", func() {
		It("should materialize per-employee totals into the summary table", func() {
			// Given
			mockRepo.totals = []*report.MonthlyTotal{
				{EmployeeID: "alice", ReceivedCoins: 40, SentCoins: 120, Likes: 3},
				{EmployeeID: "bob", ReceivedCoins: 120, SentCoins: 10, Likes: 8},
			}

			// When
			count, err := service.CloseMonth(ctx, "admin-1", 2026, time.July)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))
			Expect(recorder.actions).To(ContainElement(audit.ActionMonthlyClosed))

			stored, err := service.MonthlySummaries(2026, 7)
			Expect(err).ToNot(HaveOccurred())
			Expect(stored).To(HaveLen(2))
			Expect(stored[0].Year).To(Equal(2026))
			Expect(stored[0].Month).To(Equal(7))
		})

		It("should overwrite the snapshot on a re-run", func() {
			// Given
			mockRepo.totals = []*report.MonthlyTotal{{EmployeeID: "alice", SentCoins: 100}}
			_, err := service.CloseMonth(ctx, "admin-1", 2026, time.July)
			Expect(err).ToNot(HaveOccurred())

			// When: a correction landed, the close is run again
			mockRepo.totals = []*report.MonthlyTotal{{EmployeeID: "alice", SentCoins: 90}}
			_, err = service.CloseMonth(ctx, "admin-1", 2026, time.July)

			// Then
			Expect(err).ToNot(HaveOccurred())
			stored, _ := service.MonthlySummaries(2026, 7)
			Expect(stored[0].SentCoins).To(Equal(90))
		})

		It("should reject an out-of-range month", func() {
			// When
			_, err := service.CloseMonth(ctx, "admin-1", 2026, time.Month(13))

			// Then
			Expect(err).To(MatchError(report.ErrInvalidPeriod))
		})
	})

	Describe("ExportCSV", func() {
		It("should write a header plus one line per transfer", func() {
			// Given
			mockRepo.exports = []*report.ExportRow{
				{
					TransactionID: "txn-1",
					CreatedAt:     time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC),
					SenderName:    "Alice",
					SenderDept:    "platform",
					ReceiverName:  "Bob",
					ReceiverDept:  "design",
					Coins:         30,
					Message:       "thanks, great work",
					Likes:         2,
				},
			}
			var buf bytes.Buffer
			from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

			// When
			err := service.ExportCSV(&buf, from, to, "")

			// Then
			Expect(err).ToNot(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(HavePrefix("transaction_id,created_at,sender"))
			Expect(lines[1]).To(ContainSubstring("txn-1,2026-08-10T09:30:00Z,Alice,platform,Bob,design,30"))
			Expect(lines[1]).To(ContainSubstring(`"thanks, great work"`))
			Expect(lines[1]).To(ContainSubstring("false,2"))
		})

		It("should filter rows by department", func() {
			// Given
			mockRepo.exports = []*report.ExportRow{
				{TransactionID: "txn-1", SenderDept: "platform", ReceiverDept: "design"},
				{TransactionID: "txn-2", SenderDept: "sales", ReceiverDept: "sales"},
			}
			var buf bytes.Buffer
			from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

			// When
			err := service.ExportCSV(&buf, from, to, "design")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("txn-1"))
			Expect(buf.String()).ToNot(ContainSubstring("txn-2"))
		})
	})
})

var _ = Describe("MonthBounds", func() {
	It("should return a half-open month range in UTC", func() {
		from, to := report.MonthBounds(2026, time.December)
		Expect(from).To(Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)))
		Expect(to).To(Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
	})
})
