package postgres

import (
	"errors"
	"strings"
	"time"

	employeeDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/employee"
	"github.com/akira-ishikawa-jpg/coin-system/internal/employee"
	"gorm.io/gorm"
)

// EmployeeRepository implements the employee.Repository interface using GORM.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.Repository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(emp *employeeDatamodel.Employee) error {
	err := r.db.Create(emp).Error
	if err != nil && isDuplicateKey(err) {
		return employee.ErrDuplicateEmail
	}
	return err
}

func (r *EmployeeRepository) GetByID(id string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.Where("id = ?", id).First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) GetByEmail(email string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.Where("email = ?", email).First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) List(includeInactive bool, limit, offset int) ([]*employeeDatamodel.Employee, error) {
	var rows []*employeeDatamodel.Employee
	tx := r.db.Order("name ASC").Limit(limit).Offset(offset)
	if !includeInactive {
		tx = tx.Where("is_active = ?", true)
	}
	err := tx.Find(&rows).Error
	return rows, err
}

func (r *EmployeeRepository) UpdateRole(id, role string) error {
	return r.db.Model(&employeeDatamodel.Employee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *EmployeeRepository) Deactivate(id string) error {
	return r.db.Model(&employeeDatamodel.Employee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *EmployeeRepository) AddBonusCoins(id string, coins int) error {
	return r.db.Model(&employeeDatamodel.Employee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"bonus_coins": gorm.Expr("bonus_coins + ?", coins),
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *EmployeeRepository) ResetAllBonusCoins() (int64, error) {
	result := r.db.Model(&employeeDatamodel.Employee{}).
		Where("bonus_coins <> 0").
		Updates(map[string]interface{}{
			"bonus_coins": 0,
			"updated_at":  time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
