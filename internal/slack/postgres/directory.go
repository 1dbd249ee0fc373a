package postgres

import (
	employeeDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/employee"
	"github.com/akira-ishikawa-jpg/coin-system/internal/slack"
	"gorm.io/gorm"
)

// DirectoryRepository implements the slack.Directory interface using GORM.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) slack.Directory {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) EmployeeIDBySlackID(slackID string) (string, error) {
	var emp employeeDatamodel.Employee
	err := r.db.Select("id").
		Where("slack_id = ? AND is_active = ?", slackID, true).
		First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", slack.ErrUnknownSlackUser
		}
		return "", err
	}
	return emp.ID, nil
}
