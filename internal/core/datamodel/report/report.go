package report

import "time"

type MonthlySummary struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Year          int       `gorm:"column:year;not null;uniqueIndex:idx_month_employee"`
	Month         int       `gorm:"column:month;not null;uniqueIndex:idx_month_employee"`
	EmployeeID    string    `gorm:"column:employee_id;not null;uniqueIndex:idx_month_employee"`
	ReceivedCoins int       `gorm:"column:received_coins;default:0"`
	SentCoins     int       `gorm:"column:sent_coins;default:0"`
	Likes         int       `gorm:"column:likes;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MonthlySummary) TableName() string {
	return "monthly_summaries"
}
