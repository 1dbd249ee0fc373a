package employee

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	employeeDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/employee"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	// Create returns ErrDuplicateEmail on a unique violation.
	Create(emp *employeeDatamodel.Employee) error
	GetByID(id string) (*employeeDatamodel.Employee, error)
	GetByEmail(email string) (*employeeDatamodel.Employee, error)
	List(includeInactive bool, limit, offset int) ([]*employeeDatamodel.Employee, error)
	UpdateRole(id, role string) error
	Deactivate(id string) error
	AddBonusCoins(id string, coins int) error
	// ResetAllBonusCoins zeroes every bonus pool; returns affected rows.
	ResetAllBonusCoins() (int64, error)
}

// BonusLedger records a bonus grant as a ledger transaction. The transfer
// service satisfies this.
type BonusLedger interface {
	RecordBonus(ctx context.Context, adminID, employeeID string, coins int, reason string) (*transfer.Transfer, error)
}

// Recorder is satisfied by the audit service.
type Recorder interface {
	Record(ctx context.Context, action string, actorID string, payload map[string]interface{}) error
}

// Service covers the admin employee directory: onboarding, roles,
// deactivation and bonus grants.
type Service struct {
	repo       Repository
	ledger     BonusLedger
	recorder   Recorder
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo Repository, ledger BonusLedger, recorder Recorder, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		ledger:     ledger,
		recorder:   recorder,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

func (s *Service) Create(ctx context.Context, actorID string, dto CreateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	emp := &employeeDatamodel.Employee{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(dto.Name),
		Email:        dto.Email,
		PasswordHash: string(hash),
		Department:   strings.TrimSpace(dto.Department),
		Role:         dto.Role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if dto.SlackID != "" {
		slackID := dto.SlackID
		emp.SlackID = &slackID
	}

	if err := s.repo.Create(emp); err != nil {
		return nil, err
	}

	s.logger.Info("employee created", "employee_id", emp.ID, "email", emp.Email, "role", emp.Role)

	if err := s.recorder.Record(ctx, audit.ActionEmployeeAdded, actorID, map[string]interface{}{
		"employee_id": emp.ID,
		"email":       emp.Email,
		"role":        emp.Role,
	}); err != nil {
		s.logger.Error("audit write for employee creation failed", "error", err)
	}

	return fromDataModel(emp), nil
}

// BulkCreate onboards a batch. Rows fail independently; the result reports
// both sides.
func (s *Service) BulkCreate(ctx context.Context, actorID string, dto BulkCreateDTO) *BulkCreateResult {
	result := &BulkCreateResult{}
	for _, row := range dto.Employees {
		emp, err := s.Create(ctx, actorID, row)
		if err != nil {
			result.Failed = append(result.Failed, BulkCreateError{
				Email:  row.Email,
				Reason: err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, emp)
	}
	return result
}

func (s *Service) GetByID(id string) (*Employee, error) {
	emp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return fromDataModel(emp), nil
}

func (s *Service) List(includeInactive bool, limit, offset int) ([]*Employee, error) {
	rows, err := s.repo.List(includeInactive, limit, offset)
	if err != nil {
		return nil, err
	}
	employees := make([]*Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, fromDataModel(row))
	}
	return employees, nil
}

func (s *Service) UpdateRole(ctx context.Context, actorID, employeeID string, dto UpdateRoleDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(employeeID); err != nil {
		return err
	}
	if err := s.repo.UpdateRole(employeeID, dto.Role); err != nil {
		return err
	}

	s.logger.Info("role changed", "employee_id", employeeID, "role", dto.Role, "actor_id", actorID)

	if err := s.recorder.Record(ctx, audit.ActionRoleChanged, actorID, map[string]interface{}{
		"employee_id": employeeID,
		"role":        dto.Role,
	}); err != nil {
		s.logger.Error("audit write for role change failed", "error", err)
	}
	return nil
}

// Deactivate removes an employee from the active directory. Ledger history
// stays; the employee just can no longer send or receive.
func (s *Service) Deactivate(ctx context.Context, actorID, employeeID string) error {
	if _, err := s.repo.GetByID(employeeID); err != nil {
		return err
	}
	if err := s.repo.Deactivate(employeeID); err != nil {
		return err
	}

	s.logger.Info("employee deactivated", "employee_id", employeeID, "actor_id", actorID)

	if err := s.recorder.Record(ctx, audit.ActionEmployeeRemoved, actorID, map[string]interface{}{
		"employee_id": employeeID,
	}); err != nil {
		s.logger.Error("audit write for deactivation failed", "error", err)
	}
	return nil
}

// StartNewWeek zeroes every bonus pool. Bonus coins extend the weekly
// capacity of the week they are granted in; the Monday task calls this.
func (s *Service) StartNewWeek(ctx context.Context, actorID string) (int64, error) {
	affected, err := s.repo.ResetAllBonusCoins()
	if err != nil {
		return 0, err
	}

	s.logger.Info("weekly bonus pools reset", "employees", affected)

	if affected > 0 {
		if err := s.recorder.Record(ctx, audit.ActionWeeklyReset, actorID, map[string]interface{}{
			"employees": affected,
		}); err != nil {
			s.logger.Error("audit write for weekly reset failed", "error", err)
		}
	}
	return affected, nil
}

// GrantBonus tops up an employee's weekly capacity and records the grant as
// a bonus-tagged ledger transaction plus an audit row.
func (s *Service) GrantBonus(ctx context.Context, actorID, employeeID string, dto GrantBonusDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	emp, err := s.repo.GetByID(employeeID)
	if err != nil {
		return err
	}
	if !emp.IsActive {
		return ErrEmployeeNotFound
	}

	if err := s.repo.AddBonusCoins(employeeID, dto.Coins); err != nil {
		return err
	}

	if _, err := s.ledger.RecordBonus(ctx, actorID, employeeID, dto.Coins, dto.Reason); err != nil {
		// The capacity bump stands; the missing ledger row needs a manual
		// backfill, so make it loud.
		s.logger.Error("bonus ledger write failed", "error", err,
			"employee_id", employeeID, "coins", dto.Coins)
		return err
	}

	s.logger.Info("bonus granted",
		"employee_id", employeeID, "coins", dto.Coins, "actor_id", actorID)

	if err := s.recorder.Record(ctx, audit.ActionBonusGranted, actorID, map[string]interface{}{
		"employee_id": employeeID,
		"coins":       dto.Coins,
		"reason":      dto.Reason,
	}); err != nil {
		s.logger.Error("audit write for bonus grant failed", "error", err)
	}
	return nil
}

func fromDataModel(m *employeeDatamodel.Employee) *Employee {
	emp := &Employee{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Department: m.Department,
		Role:       m.Role,
		BonusCoins: m.BonusCoins,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
	}
	if m.SlackID != nil {
		emp.SlackID = *m.SlackID
	}
	return emp
}
