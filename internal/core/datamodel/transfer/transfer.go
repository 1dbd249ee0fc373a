package transfer

import "time"

// CoinTransaction rows are immutable once written. Updates and deletes only
// happen through explicit data-repair tooling, never in the request path.
type CoinTransaction struct {
	ID         string    `gorm:"primaryKey;column:id"`
	SenderID   string    `gorm:"column:sender_id;not null;index"`
	ReceiverID string    `gorm:"column:receiver_id;not null;index"`
	Coins      int       `gorm:"column:coins;not null"`
	Message    string    `gorm:"column:message"`
	Emoji      string    `gorm:"column:emoji"`
	WeekStart  string    `gorm:"column:week_start;type:date;index"`
	Origin     string    `gorm:"column:origin;type:jsonb"`
	IsBonus    bool      `gorm:"column:is_bonus;default:false"`
	DedupKey   *string   `gorm:"column:dedup_key;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CoinTransaction) TableName() string {
	return "coin_transactions"
}
