package audit

import "time"

// AuditLog is append-only; rows are never updated or deleted.
type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Action    string    `gorm:"column:action;not null;index"`
	Payload   string    `gorm:"column:payload;type:jsonb"`
	ActorID   *string   `gorm:"column:actor_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
