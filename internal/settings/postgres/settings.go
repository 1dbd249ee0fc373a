package postgres

import (
	settingDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/setting"
	"github.com/akira-ishikawa-jpg/coin-system/internal/settings"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(key string) (string, error) {
	var s settingDatamodel.Setting
	err := r.db.Where("key = ?", key).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", settings.ErrSettingNotFound
		}
		return "", err
	}
	return s.Value, nil
}

func (r *SettingsRepository) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&settingDatamodel.Setting{Key: key, Value: value}).Error
}
