package employee

import "time"

type Employee struct {
	ID           string    `gorm:"primaryKey;column:id"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash"`
	Department   string    `gorm:"column:department"`
	Role         string    `gorm:"column:role;default:user"`
	SlackID      *string   `gorm:"column:slack_id"`
	BonusCoins   int       `gorm:"column:bonus_coins;default:0"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}
