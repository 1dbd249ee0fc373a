package postgres

import (
	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	auditDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

// AuditRepository implements the audit.Repository interface using GORM.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(entry *auditDatamodel.AuditLog) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepository) List(action string, limit, offset int) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	tx := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if action != "" {
		tx = tx.Where("action = ?", action)
	}
	err := tx.Find(&rows).Error
	return rows, err
}
