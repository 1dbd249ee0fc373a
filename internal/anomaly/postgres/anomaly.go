package postgres

import (
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/anomaly"
	transferDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/transfer"
	"gorm.io/gorm"
)

// AnomalyRepository implements the anomaly.Repository interface using GORM.
type AnomalyRepository struct {
	db *gorm.DB
}

func NewAnomalyRepository(db *gorm.DB) anomaly.Repository {
	return &AnomalyRepository{db: db}
}

func (r *AnomalyRepository) SumBetweenPartiesInWeek(senderID, receiverID, weekStart string) (int, error) {
	var total int64
	err := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Select("COALESCE(SUM(coins), 0)").
		Where("sender_id = ? AND receiver_id = ? AND week_start = ? AND is_bonus = ?",
			senderID, receiverID, weekStart, false).
		Scan(&total).Error
	return int(total), err
}

func (r *AnomalyRepository) HasReverseTransferInWeek(senderID, receiverID, weekStart string) (bool, error) {
	var count int64
	err := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Where("sender_id = ? AND receiver_id = ? AND week_start = ? AND is_bonus = ?",
			receiverID, senderID, weekStart, false).
		Count(&count).Error
	return count > 0, err
}

func (r *AnomalyRepository) CountSentOnDay(senderID string, dayStart, dayEnd time.Time) (int, error) {
	var count int64
	err := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Where("sender_id = ? AND created_at >= ? AND created_at < ? AND is_bonus = ?",
			senderID, dayStart, dayEnd, false).
		Count(&count).Error
	return int(count), err
}
