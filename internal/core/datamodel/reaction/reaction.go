package reaction

import "time"

// TransactionLike is unique per (transaction, employee); the composite
// primary key is the store-level guard against concurrent double-likes.
type TransactionLike struct {
	TransactionID string    `gorm:"primaryKey;column:transaction_id"`
	EmployeeID    string    `gorm:"primaryKey;column:employee_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TransactionLike) TableName() string {
	return "transaction_likes"
}
