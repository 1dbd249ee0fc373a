package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	auditDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/audit"
)

type Repository interface {
	Create(entry *auditDatamodel.AuditLog) error
	List(action string, limit, offset int) ([]*auditDatamodel.AuditLog, error)
}

// Service writes and reads the append-only audit trail.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one audit row. The payload is stored as jsonb.
func (s *Service) Record(ctx context.Context, action string, actorID string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	entry := &auditDatamodel.AuditLog{
		Action:    action,
		Payload:   string(raw),
		CreatedAt: time.Now().UTC(),
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}

	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("audit write failed", "error", err, "action", action)
		return err
	}
	return nil
}

// List returns audit rows, newest first, optionally filtered by action.
func (s *Service) List(action string, limit, offset int) ([]*Entry, error) {
	rows, err := s.repo.List(action, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entry := &Entry{
			ID:        row.ID,
			Action:    row.Action,
			ActorID:   row.ActorID,
			CreatedAt: row.CreatedAt,
		}
		if err := json.Unmarshal([]byte(row.Payload), &entry.Payload); err != nil {
			s.logger.Warn("audit payload is not valid JSON", "error", err, "audit_id", row.ID)
			entry.Payload = map[string]interface{}{"raw": row.Payload}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
