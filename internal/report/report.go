package report

import (
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid reporting period")

// RankingEntry is one row of a leaderboard.
type RankingEntry struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Total      int    `json:"total"`
}

// Rankings bundles the three leaderboards for a period.
type Rankings struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	TopReceivers []*RankingEntry `json:"top_receivers"`
	TopSenders   []*RankingEntry `json:"top_senders"`
	MostLiked    []*RankingEntry `json:"most_liked"`
}

// MonthlyTotal is the per-employee aggregate for one calendar month.
type MonthlyTotal struct {
	EmployeeID    string `json:"employee_id"`
	Name          string `json:"name"`
	ReceivedCoins int    `json:"received_coins"`
	SentCoins     int    `json:"sent_coins"`
	Likes         int    `json:"likes"`
}

// ExportRow is one CSV line of the transfer export.
type ExportRow struct {
	TransactionID string
	CreatedAt     time.Time
	SenderName    string
	SenderDept    string
	ReceiverName  string
	ReceiverDept  string
	Coins         int
	Message       string
	IsBonus       bool
	Likes         int
}

// MonthBounds returns [start, end) in UTC for a calendar month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
