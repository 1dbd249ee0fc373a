package audit

import (
	"errors"
	"time"
)

// Actions written to the audit trail.
const (
	ActionAnomalyDetected = "anomaly_detected"
	ActionBonusGranted    = "bonus_granted"
	ActionEmployeeAdded   = "employee_added"
	ActionEmployeeRemoved = "employee_removed"
	ActionRoleChanged     = "role_changed"
	ActionPolicyChanged   = "policy_changed"
	ActionMonthlyClosed   = "monthly_closed"
	ActionWeeklyReset     = "weekly_reset"
)

var ErrAuditNotFound = errors.New("audit entry not found")

// Entry is the domain view of one audit row. Payload is the decoded jsonb.
type Entry struct {
	ID        int64                  `json:"id"`
	Action    string                 `json:"action"`
	Payload   map[string]interface{} `json:"payload"`
	ActorID   *string                `json:"actor_id,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
