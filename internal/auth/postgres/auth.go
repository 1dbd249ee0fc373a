package postgres

import (
	"database/sql"
	"fmt"

	"github.com/akira-ishikawa-jpg/coin-system/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(email string) (string, string, error) {
	var passwordHash string
	var employeeID string
	query := `SELECT id, password_hash FROM employees WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&employeeID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("employee not found")
		}
		return "", "", err
	}
	return passwordHash, employeeID, nil
}

func (r *Repository) GetActiveEmployee(employeeID string) (*auth.CurrentUser, error) {
	var user auth.CurrentUser
	query := `SELECT id, email, name, role FROM employees WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, employeeID).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee not found")
		}
		return nil, err
	}
	return &user, nil
}
