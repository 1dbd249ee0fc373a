package employee

import (
	"errors"
	"strings"
)

type CreateEmployeeDTO struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
	Role       string `json:"role,omitempty"`
	SlackID    string `json:"slack_id,omitempty"`
}

func (dto *CreateEmployeeDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return errors.New("name is required")
	}
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if dto.Role == "" {
		dto.Role = RoleUser
	}
	if dto.Role != RoleUser && dto.Role != RoleAdmin {
		return ErrInvalidRole
	}
	return nil
}

type BulkCreateDTO struct {
	Employees []CreateEmployeeDTO `json:"employees"`
}

// BulkCreateResult reports per-row outcomes; one bad row does not abort the
// batch.
type BulkCreateResult struct {
	Created []*Employee       `json:"created"`
	Failed  []BulkCreateError `json:"failed,omitempty"`
}

type BulkCreateError struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type UpdateRoleDTO struct {
	Role string `json:"role"`
}

func (dto UpdateRoleDTO) Validate() error {
	if dto.Role != RoleUser && dto.Role != RoleAdmin {
		return ErrInvalidRole
	}
	return nil
}

type GrantBonusDTO struct {
	Coins  int    `json:"coins"`
	Reason string `json:"reason"`
}

func (dto GrantBonusDTO) Validate() error {
	if dto.Coins <= 0 {
		return errors.New("coins must be a positive integer")
	}
	if strings.TrimSpace(dto.Reason) == "" {
		return errors.New("a reason is required")
	}
	return nil
}
