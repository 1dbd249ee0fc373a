package postgres

import (
	"time"

	reportDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/report"
	transferDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/transfer"
	"github.com/akira-ishikawa-jpg/coin-system/internal/report"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportRepository implements the report.Repository interface using GORM.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) report.Repository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) TopReceivers(from, to time.Time, limit int) ([]*report.RankingEntry, error) {
	var entries []*report.RankingEntry
	err := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Select("employees.id AS employee_id, employees.name, employees.department, SUM(coin_transactions.coins) AS total").
		Joins("JOIN employees ON employees.id = coin_transactions.receiver_id").
		Where("coin_transactions.created_at >= ? AND coin_transactions.created_at < ?", from, to).
		Group("employees.id, employees.name, employees.department").
		Order("total DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

func (r *ReportRepository) TopSenders(from, to time.Time, limit int) ([]*report.RankingEntry, error) {
	var entries []*report.RankingEntry
	err := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Select("employees.id AS employee_id, employees.name, employees.department, SUM(coin_transactions.coins) AS total").
		Joins("JOIN employees ON employees.id = coin_transactions.sender_id").
		Where("coin_transactions.created_at >= ? AND coin_transactions.created_at < ? AND coin_transactions.is_bonus = ?", from, to, false).
		Group("employees.id, employees.name, employees.department").
		Order("total DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

func (r *ReportRepository) MostLiked(from, to time.Time, limit int) ([]*report.RankingEntry, error) {
	var entries []*report.RankingEntry
	err := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Select("employees.id AS employee_id, employees.name, employees.department, COUNT(transaction_likes.employee_id) AS total").
		Joins("JOIN employees ON employees.id = coin_transactions.receiver_id").
		Joins("JOIN transaction_likes ON transaction_likes.transaction_id = coin_transactions.id").
		Where("coin_transactions.created_at >= ? AND coin_transactions.created_at < ?", from, to).
		Group("employees.id, employees.name, employees.department").
		Order("total DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

func (r *ReportRepository) MonthlyTotals(from, to time.Time) ([]*report.MonthlyTotal, error) {
	var totals []*report.MonthlyTotal
	err := r.db.Raw(`
		SELECT employees.id AS employee_id,
		       employees.name,
		       COALESCE(received.coins, 0) AS received_coins,
		       COALESCE(sent.coins, 0) AS sent_coins,
		       COALESCE(liked.likes, 0) AS likes
		FROM employees
		LEFT JOIN (
			SELECT receiver_id, SUM(coins) AS coins
			FROM coin_transactions
			WHERE created_at >= ? AND created_at < ?
			GROUP BY receiver_id
		) received ON received.receiver_id = employees.id
		LEFT JOIN (
			SELECT sender_id, SUM(coins) AS coins
			FROM coin_transactions
			WHERE created_at >= ? AND created_at < ? AND is_bonus = FALSE
			GROUP BY sender_id
		) sent ON sent.sender_id = employees.id
		LEFT JOIN (
			SELECT ct.receiver_id, COUNT(*) AS likes
			FROM transaction_likes tl
			JOIN coin_transactions ct ON ct.id = tl.transaction_id
			WHERE ct.created_at >= ? AND ct.created_at < ?
			GROUP BY ct.receiver_id
		) liked ON liked.receiver_id = employees.id
		WHERE received.coins IS NOT NULL
		   OR sent.coins IS NOT NULL
		   OR liked.likes IS NOT NULL
	`, from, to, from, to, from, to).Scan(&totals).Error
	return totals, err
}

func (r *ReportRepository) UpsertMonthlySummaries(summaries []*reportDatamodel.MonthlySummary) error {
	if len(summaries) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}, {Name: "month"}, {Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"received_coins", "sent_coins", "likes",
		}),
	}).Create(&summaries).Error
}

func (r *ReportRepository) GetMonthlySummaries(year, month int) ([]*reportDatamodel.MonthlySummary, error) {
	var summaries []*reportDatamodel.MonthlySummary
	err := r.db.Where("year = ? AND month = ?", year, month).
		Order("received_coins DESC").
		Find(&summaries).Error
	return summaries, err
}

func (r *ReportRepository) ExportRows(from, to time.Time, department string) ([]*report.ExportRow, error) {
	tx := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Select(`coin_transactions.id AS transaction_id,
			coin_transactions.created_at,
			senders.name AS sender_name,
			senders.department AS sender_dept,
			receivers.name AS receiver_name,
			receivers.department AS receiver_dept,
			coin_transactions.coins,
			coin_transactions.message,
			coin_transactions.is_bonus,
			COUNT(transaction_likes.employee_id) AS likes`).
		Joins("JOIN employees senders ON senders.id = coin_transactions.sender_id").
		Joins("JOIN employees receivers ON receivers.id = coin_transactions.receiver_id").
		Joins("LEFT JOIN transaction_likes ON transaction_likes.transaction_id = coin_transactions.id").
		Where("coin_transactions.created_at >= ? AND coin_transactions.created_at < ?", from, to).
		Group("coin_transactions.id, senders.name, senders.department, receivers.name, receivers.department").
		Order("coin_transactions.created_at ASC")

	if department != "" {
		tx = tx.Where("senders.department = ? OR receivers.department = ?", department, department)
	}

	var rows []*report.ExportRow
	err := tx.Scan(&rows).Error
	return rows, err
}
