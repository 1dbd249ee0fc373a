package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	transferDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/transfer"
	"github.com/akira-ishikawa-jpg/coin-system/internal/core/events"
	"github.com/akira-ishikawa-jpg/coin-system/internal/core/observability"
	"github.com/google/uuid"
)

// Party is the slice of an employee record the transfer pipeline needs.
type Party struct {
	ID         string
	Name       string
	SlackID    string
	BonusCoins int
	IsActive   bool
}

// ErrDuplicateDedupKey is returned by the repository when an insert hits the
// dedup-key unique index; the service resolves it to the prior transaction.
var ErrDuplicateDedupKey = errors.New("duplicate dedup key")

// Repository is the ledger access needed by the processor and quota engine.
type Repository interface {
	// Submit inserts the transaction and enforces the weekly quota in one
	// database transaction, locking the sender's employee row. It returns
	// the remaining allowance after the insert, or QuotaExceededError.
	Submit(txn *transferDatamodel.CoinTransaction, weeklyAllowance int) (remaining int, err error)
	// Create inserts without a quota check; only the bonus path uses it.
	Create(txn *transferDatamodel.CoinTransaction) error
	GetByID(id string) (*transferDatamodel.CoinTransaction, error)
	GetByDedupKey(key string) (*transferDatamodel.CoinTransaction, error)
	GetParty(employeeID string) (*Party, error)
	// SumSentInPeriod excludes bonus-tagged rows.
	SumSentInPeriod(senderID, weekStart string) (int, error)
	ListRecent(limit, offset int) ([]*Transfer, error)
	ListForEmployee(employeeID string, limit, offset int) ([]*Transfer, error)
}

// AnomalyDetector runs after a committed transfer. Its failure is logged and
// swallowed; it never unwinds the transfer.
type AnomalyDetector interface {
	Evaluate(senderID, receiverID string, coins int, weekStart string, now time.Time) error
}

// Service is the transfer processor: it validates, commits exactly one
// ledger row per accepted transfer, then triggers detection and
// notification side effects.
type Service struct {
	repo     Repository
	quota    *QuotaEngine
	policy   PolicySource
	detector AnomalyDetector
	eventBus *events.EventBus
	logger   *slog.Logger

	now func() time.Time
}

func NewService(repo Repository, quota *QuotaEngine, policy PolicySource, detector AnomalyDetector, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		quota:    quota,
		policy:   policy,
		detector: detector,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// SubmitTransfer validates and records one coin transfer. Precondition
// order: unknown party, self transfer, amount range, missing message, quota.
// The quota check is re-run atomically inside the ledger transaction so two
// concurrent transfers cannot jointly exceed the allowance.
func (s *Service) SubmitTransfer(ctx context.Context, senderID string, dto SendCoinsDTO, origin string) (*TransferResult, error) {
	if dto.DedupKey != "" {
		if prior, err := s.repo.GetByDedupKey(dto.DedupKey); err == nil && prior != nil {
			s.logger.Info("dedup key replay, returning prior transfer",
				"dedup_key", dto.DedupKey, "transaction_id", prior.ID)
			return s.replayResult(prior)
		}
	}

	sender, err := s.repo.GetParty(senderID)
	if err != nil {
		return nil, s.partyLookupError(err, "sender", senderID)
	}
	receiver, err := s.repo.GetParty(dto.ReceiverID)
	if err != nil {
		return nil, s.partyLookupError(err, "receiver", dto.ReceiverID)
	}
	if !sender.IsActive || !receiver.IsActive {
		return nil, ErrUnknownParty
	}

	if sender.ID == receiver.ID {
		return nil, ErrSelfTransfer
	}

	policy := s.policy.CurrentPolicy()
	if dto.Coins <= 0 || dto.Coins > policy.MaxTransferSize {
		observability.TransferRejectionsTotal.WithLabelValues("amount_out_of_range").Inc()
		return nil, &AmountOutOfRangeError{Coins: dto.Coins, Cap: policy.MaxTransferSize}
	}

	message := strings.TrimSpace(dto.Message)
	if message == "" {
		return nil, ErrMissingMessage
	}

	asOf := s.now()
	txn := &transferDatamodel.CoinTransaction{
		ID:         uuid.New().String(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Coins:      dto.Coins,
		Message:    message,
		Emoji:      dto.Emoji,
		WeekStart:  WeekStartDate(asOf),
		Origin:     originJSON(origin),
		CreatedAt:  asOf,
	}
	if dto.DedupKey != "" {
		txn.DedupKey = &dto.DedupKey
	}

	remaining, err := s.repo.Submit(txn, policy.WeeklyAllowance)
	if err != nil {
		var quotaErr *QuotaExceededError
		switch {
		case errors.As(err, &quotaErr):
			observability.TransferRejectionsTotal.WithLabelValues("quota_exceeded").Inc()
			s.logger.Info("transfer rejected, quota exceeded",
				"sender_id", sender.ID, "coins", dto.Coins, "remaining", quotaErr.Remaining)
			return nil, quotaErr
		case errors.Is(err, ErrDuplicateDedupKey):
			// Lost a race against a concurrent replay of the same command.
			if prior, priorErr := s.repo.GetByDedupKey(dto.DedupKey); priorErr == nil && prior != nil {
				return s.replayResult(prior)
			}
			return nil, ErrStoreUnavailable
		default:
			s.logger.Error("transfer insert failed", "error", err, "sender_id", sender.ID)
			return nil, ErrStoreUnavailable
		}
	}

	observability.TransfersTotal.WithLabelValues(origin).Inc()
	observability.CoinsSentTotal.Add(float64(dto.Coins))

	s.logger.Info("transfer committed",
		"transaction_id", txn.ID,
		"sender_id", sender.ID,
		"receiver_id", receiver.ID,
		"coins", dto.Coins,
		"remaining", remaining,
		"origin", origin)

	// Post-commit effects. Detection failure is logged and swallowed; the
	// transfer already succeeded.
	if err := s.detector.Evaluate(sender.ID, receiver.ID, dto.Coins, txn.WeekStart, asOf); err != nil {
		s.logger.Error("anomaly detection failed", "error", err, "transaction_id", txn.ID)
	}

	s.eventBus.Publish(ctx, events.NewTransferCreatedEvent(
		txn.ID, sender.ID, sender.Name, receiver.ID, receiver.Name, receiver.SlackID,
		dto.Coins, message))

	result := FromDataModel(txn)
	return &TransferResult{Transfer: result, Remaining: remaining}, nil
}

// RemainingAllowance reports the sender's current sendable coins.
func (s *Service) RemainingAllowance(senderID string) (*RemainingDTO, error) {
	asOf := s.now()
	remaining, err := s.quota.RemainingAllowance(senderID, asOf)
	if err != nil {
		return nil, err
	}
	return &RemainingDTO{Remaining: remaining, WeekStart: WeekStartDate(asOf)}, nil
}

// RecordBonus writes an admin-granted bonus transaction. Bonus rows bypass
// the quota check and are excluded from quota consumption.
func (s *Service) RecordBonus(ctx context.Context, adminID, employeeID string, coins int, reason string) (*Transfer, error) {
	now := s.now()
	txn := &transferDatamodel.CoinTransaction{
		ID:         uuid.New().String(),
		SenderID:   adminID,
		ReceiverID: employeeID,
		Coins:      coins,
		Message:    "[Bonus] " + reason,
		Emoji:      "🎁",
		WeekStart:  WeekStartDate(now),
		Origin:     originJSON(OriginBonus),
		IsBonus:    true,
		CreatedAt:  now,
	}

	if err := s.repo.Create(txn); err != nil {
		s.logger.Error("bonus insert failed", "error", err, "employee_id", employeeID)
		return nil, ErrStoreUnavailable
	}

	s.eventBus.Publish(ctx, events.NewBonusGrantedEvent(adminID, employeeID, coins, reason))
	return FromDataModel(txn), nil
}

func (s *Service) GetTransfer(id string) (*Transfer, error) {
	txn, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(txn), nil
}

func (s *Service) ListRecent(limit, offset int) ([]*Transfer, error) {
	return s.repo.ListRecent(limit, offset)
}

func (s *Service) ListForEmployee(employeeID string, limit, offset int) ([]*Transfer, error) {
	return s.repo.ListForEmployee(employeeID, limit, offset)
}

func (s *Service) replayResult(prior *transferDatamodel.CoinTransaction) (*TransferResult, error) {
	remaining, err := s.quota.RemainingAllowance(prior.SenderID, s.now())
	if err != nil {
		// The original transfer stands; remaining is best-effort on replay.
		remaining = 0
	}
	return &TransferResult{Transfer: FromDataModel(prior), Remaining: remaining, Replayed: true}, nil
}

func (s *Service) partyLookupError(err error, role, id string) error {
	if err == ErrUnknownParty {
		s.logger.Warn("transfer rejected, unknown party", "role", role, "employee_id", id)
		return ErrUnknownParty
	}
	s.logger.Error("party lookup failed", "error", err, "role", role, "employee_id", id)
	return ErrStoreUnavailable
}

func originJSON(source string) string {
	b, _ := json.Marshal(map[string]string{"source": source})
	return string(b)
}
