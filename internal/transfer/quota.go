package transfer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/settings"
)

// PolicySource yields the live policy snapshot for one request.
type PolicySource interface {
	CurrentPolicy() settings.Policy
}

// QuotaEngine computes a sender's remaining sendable coins for the current
// accounting period. Read-only; the authoritative re-check happens inside
// the ledger transaction when a transfer is committed.
type QuotaEngine struct {
	repo   Repository
	policy PolicySource
	logger *slog.Logger
}

func NewQuotaEngine(repo Repository, policy PolicySource, logger *slog.Logger) *QuotaEngine {
	return &QuotaEngine{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

// RemainingAllowance returns weekly allowance + bonus pool − coins already
// sent this period (bonus-tagged rows excluded). Bonus coins extend weekly
// capacity; they are not a separate spendable pool. The result may be
// negative when historical data violates the cap; callers treat negative as
// zero capacity and must not error on it.
func (q *QuotaEngine) RemainingAllowance(senderID string, asOf time.Time) (int, error) {
	party, err := q.repo.GetParty(senderID)
	if err != nil {
		if err == ErrUnknownParty {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sent, err := q.repo.SumSentInPeriod(senderID, WeekStartDate(asOf))
	if err != nil {
		// A store failure must surface as such, never as zero remaining.
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	policy := q.policy.CurrentPolicy()
	remaining := policy.WeeklyAllowance + party.BonusCoins - sent

	q.logger.Debug("computed remaining allowance",
		"sender_id", senderID,
		"week_start", WeekStartDate(asOf),
		"sent", sent,
		"bonus", party.BonusCoins,
		"remaining", remaining)

	return remaining, nil
}
