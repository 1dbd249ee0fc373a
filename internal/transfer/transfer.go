package transfer

import (
	"errors"
	"fmt"
	"time"

	transferDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/transfer"
)

// Transfer is the domain view of one ledger row.
type Transfer struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Coins      int       `json:"coins"`
	Message    string    `json:"message"`
	Emoji      string    `json:"emoji,omitempty"`
	WeekStart  string    `json:"week_start"`
	IsBonus    bool      `json:"is_bonus,omitempty"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransferResult is returned on an accepted transfer. Remaining reflects the
// sender's allowance after this transfer was committed.
type TransferResult struct {
	Transfer  *Transfer `json:"transfer"`
	Remaining int       `json:"remaining"`
	Replayed  bool      `json:"replayed,omitempty"`
}

// Origin labels recorded in the transaction's origin metadata.
const (
	OriginWeb   = "web"
	OriginSlack = "slack"
	OriginBonus = "admin_bonus"
)

// Domain errors. Validation errors short-circuit before any write.
var (
	ErrUnknownParty     = errors.New("sender or receiver is not a registered employee")
	ErrSelfTransfer     = errors.New("cannot send coins to yourself")
	ErrMissingMessage   = errors.New("a message is required")
	ErrTransferNotFound = errors.New("transfer not found")
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)

// AmountOutOfRangeError carries the cap so callers can render the boundary.
type AmountOutOfRangeError struct {
	Coins int
	Cap   int
}

func (e *AmountOutOfRangeError) Error() string {
	return fmt.Sprintf("coins must be between 1 and %d, got %d", e.Cap, e.Coins)
}

// QuotaExceededError carries the remaining allowance for user display.
type QuotaExceededError struct {
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("insufficient remaining coins: %d", e.Remaining)
}

// WeekStart returns the most recent Monday 00:00 UTC on or before t. A
// Monday is its own period start. All quota arithmetic uses this boundary.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -daysSinceMonday)
}

// WeekStartDate formats the period start the way the ledger stores it.
func WeekStartDate(t time.Time) string {
	return WeekStart(t).Format("2006-01-02")
}

// DayStart returns midnight UTC of t's calendar day, the spam-rule window.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FromDataModel(m *transferDatamodel.CoinTransaction) *Transfer {
	return &Transfer{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Coins:      m.Coins,
		Message:    m.Message,
		Emoji:      m.Emoji,
		WeekStart:  m.WeekStart,
		IsBonus:    m.IsBonus,
		CreatedAt:  m.CreatedAt,
	}
}
