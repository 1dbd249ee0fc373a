package transfer_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	transferDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/transfer"
	"github.com/akira-ishikawa-jpg/coin-system/internal/core/events"
	"github.com/akira-ishikawa-jpg/coin-system/internal/settings"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
)

// Mock repository for testing. Submit mirrors the production quota semantics:
// one atomic check against the sender's non-bonus sent sum plus bonus pool.
type mockTransferRepository struct {
	transactions []*transferDatamodel.CoinTransaction
	parties      map[string]*transfer.Party

	submitError error
	createError error
	sumError    error
}

func newMockTransferRepository() *mockTransferRepository {
	return &mockTransferRepository{
		parties: make(map[string]*transfer.Party),
	}
}

func (m *mockTransferRepository) addParty(p *transfer.Party) {
	m.parties[p.ID] = p
}

func (m *mockTransferRepository) Submit(txn *transferDatamodel.CoinTransaction, weeklyAllowance int) (int, error) {
	if m.submitError != nil {
		return 0, m.submitError
	}
	if txn.DedupKey != nil {
		if prior, _ := m.GetByDedupKey(*txn.DedupKey); prior != nil {
			return 0, transfer.ErrDuplicateDedupKey
		}
	}
	sent, _ := m.SumSentInPeriod(txn.SenderID, txn.WeekStart)
	bonus := 0
	if p, ok := m.parties[txn.SenderID]; ok {
		bonus = p.BonusCoins
	}
	available := weeklyAllowance + bonus - sent
	if txn.Coins > available {
		return 0, &transfer.QuotaExceededError{Remaining: available}
	}
	m.transactions = append(m.transactions, txn)
	return available - txn.Coins, nil
}

func (m *mockTransferRepository) Create(txn *transferDatamodel.CoinTransaction) error {
	if m.createError != nil {
		return m.createError
	}
	m.transactions = append(m.transactions, txn)
	return nil
}

func (m *mockTransferRepository) GetByID(id string) (*transferDatamodel.CoinTransaction, error) {
	for _, txn := range m.transactions {
		if txn.ID == id {
			return txn, nil
		}
	}
	return nil, transfer.ErrTransferNotFound
}

func (m *mockTransferRepository) GetByDedupKey(key string) (*transferDatamodel.CoinTransaction, error) {
	for _, txn := range m.transactions {
		if txn.DedupKey != nil && *txn.DedupKey == key {
			return txn, nil
		}
	}
	return nil, transfer.ErrTransferNotFound
}

func (m *mockTransferRepository) GetParty(employeeID string) (*transfer.Party, error) {
	p, ok := m.parties[employeeID]
	if !ok {
		return nil, transfer.ErrUnknownParty
	}
	return p, nil
}

func (m *mockTransferRepository) SumSentInPeriod(senderID, weekStart string) (int, error) {
	if m.sumError != nil {
		return 0, m.sumError
	}
	total := 0
	for _, txn := range m.transactions {
		if txn.SenderID == senderID && txn.WeekStart == weekStart && !txn.IsBonus {
			total += txn.Coins
		}
	}
	return total, nil
}

func (m *mockTransferRepository) ListRecent(limit, offset int) ([]*transfer.Transfer, error) {
	out := make([]*transfer.Transfer, 0, len(m.transactions))
	for _, txn := range m.transactions {
		out = append(out, transfer.FromDataModel(txn))
	}
	return out, nil
}

func (m *mockTransferRepository) ListForEmployee(employeeID string, limit, offset int) ([]*transfer.Transfer, error) {
	out := make([]*transfer.Transfer, 0)
	for _, txn := range m.transactions {
		if txn.SenderID == employeeID || txn.ReceiverID == employeeID {
			out = append(out, transfer.FromDataModel(txn))
		}
	}
	return out, nil
}

// Mock policy source with fixed values.
type mockPolicySource struct {
	policy settings.Policy
}

func (m *mockPolicySource) CurrentPolicy() settings.Policy {
	return m.policy
}

// Mock anomaly detector recording every evaluation.
type mockAnomalyDetector struct {
	evaluations   int
	evaluateError error
}

func (m *mockAnomalyDetector) Evaluate(senderID, receiverID string, coins int, weekStart string, now time.Time) error {
	m.evaluations++
	return m.evaluateError
}

var _ = Describe("TransferService", func() {
	var (
		service  *transfer.Service
		mockRepo *mockTransferRepository
		policy   *mockPolicySource
		detector *mockAnomalyDetector
		logger   *slog.Logger
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockTransferRepository()
		mockRepo.addParty(&transfer.Party{ID: "alice", Name: "Alice", IsActive: true})
		mockRepo.addParty(&transfer.Party{ID: "bob", Name: "Bob", IsActive: true})
		policy = &mockPolicySource{policy: settings.Policy{WeeklyAllowance: 250, MaxTransferSize: 100}}
		detector = &mockAnomalyDetector{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus := events.NewEventBus(logger)
		quota := transfer.NewQuotaEngine(mockRepo, policy, logger)
		service = transfer.NewService(mockRepo, quota, policy, detector, eventBus, logger)
		ctx = context.Background()
	})

	Describe("SubmitTransfer", func() {
		Context("when the transfer is valid", func() {
			It("should commit the transfer and report the remaining allowance", func() {
				// Given
				dto := transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 30, Message: "thanks for the review"}

				// When
				result, err := service.SubmitTransfer(ctx, "alice", dto, transfer.OriginWeb)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Transfer.SenderID).To(Equal("alice"))
				Expect(result.Transfer.ReceiverID).To(Equal("bob"))
				Expect(result.Transfer.Coins).To(Equal(30))
				Expect(result.Remaining).To(Equal(220))
				Expect(result.Replayed).To(BeFalse())
				Expect(mockRepo.transactions).To(HaveLen(1))
			})

			It("should run anomaly detection after the commit", func() {
				// Given
				dto := transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 10, Message: "nice work"}

				// When
				_, err := service.SubmitTransfer(ctx, "alice", dto, transfer.OriginWeb)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(detector.evaluations).To(Equal(1))
			})

			It("should not unwind the transfer when detection fails", func() {
				// Given
				detector.evaluateError = errors.New("audit store down")
				dto := transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 10, Message: "nice work"}

				// When
				result, err := service.SubmitTransfer(ctx, "alice", dto, transfer.OriginWeb)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result).ToNot(BeNil())
				Expect(mockRepo.transactions).To(HaveLen(1))
			})

			It("should trim whitespace around the message", func() {
				// Given
				dto := transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 10, Message: "  thank you  "}

				// When
				result, err := service.SubmitTransfer(ctx, "alice", dto, transfer.OriginWeb)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Transfer.Message).To(Equal("thank you"))
			})
		})

		Context("when the weekly quota is exhausted across transfers", func() {
			It("should reject the transfer that would exceed the allowance", func() {
				// Given: 250 allowance, 200 already spent
				_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 100, Message: "one"}, transfer.OriginWeb)
				Expect(err).ToNot(HaveOccurred())
				_, err = service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 100, Message: "two"}, transfer.OriginWeb)
				Expect(err).ToNot(HaveOccurred())

				// When: 60 more would exceed the remaining 50
				result, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 60, Message: "three"}, transfer.OriginWeb)

				// Then
				Expect(result).To(BeNil())
				var quotaErr *transfer.QuotaExceededError
				Expect(errors.As(err, &quotaErr)).To(BeTrue())
				Expect(quotaErr.Remaining).To(Equal(50))
				Expect(mockRepo.transactions).To(HaveLen(2))
			})

			It("should allow spending the exact remainder down to zero", func() {
				// Given
				_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 100, Message: "one"}, transfer.OriginWeb)
				Expect(err).ToNot(HaveOccurred())
				_, err = service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 100, Message: "two"}, transfer.OriginWeb)
				Expect(err).ToNot(HaveOccurred())

				// When
				result, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 50, Message: "three"}, transfer.OriginWeb)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Remaining).To(Equal(0))
			})
		})

		Context("when the sender has bonus coins", func() {
			It("should extend the weekly capacity by the bonus pool", func() {
				// Given
				mockRepo.parties["alice"].BonusCoins = 40

				// When
				result, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 100, Message: "big thanks"}, transfer.OriginWeb)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Remaining).To(Equal(190))
			})
		})

		Context("when a dedup key is replayed", func() {
			It("should return the prior transfer without a second ledger row", func() {
				// Given
				dto := transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 25, Message: "once only", DedupKey: "slack:trigger-1"}
				first, err := service.SubmitTransfer(ctx, "alice", dto, transfer.OriginSlack)
				Expect(err).ToNot(HaveOccurred())

				// When
				second, err := service.SubmitTransfer(ctx, "alice", dto, transfer.OriginSlack)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(second.Replayed).To(BeTrue())
				Expect(second.Transfer.ID).To(Equal(first.Transfer.ID))
				Expect(mockRepo.transactions).To(HaveLen(1))
			})
		})

		Context("when preconditions fail", func() {
			It("should reject an unknown receiver", func() {
				// When
				result, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "nobody", Coins: 10, Message: "hi"}, transfer.OriginWeb)

				// Then
				Expect(err).To(MatchError(transfer.ErrUnknownParty))
				Expect(result).To(BeNil())
			})

			It("should reject a deactivated receiver", func() {
				// Given
				mockRepo.addParty(&transfer.Party{ID: "carol", Name: "Carol", IsActive: false})

				// When
				_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "carol", Coins: 10, Message: "hi"}, transfer.OriginWeb)

				// Then
				Expect(err).To(MatchError(transfer.ErrUnknownParty))
			})

			It("should reject a self transfer", func() {
				// When
				_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "alice", Coins: 10, Message: "me"}, transfer.OriginWeb)

				// Then
				Expect(err).To(MatchError(transfer.ErrSelfTransfer))
			})

			It("should reject an amount over the per-transfer cap", func() {
				// When
				_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 101, Message: "too much"}, transfer.OriginWeb)

				// Then
				var rangeErr *transfer.AmountOutOfRangeError
				Expect(errors.As(err, &rangeErr)).To(BeTrue())
				Expect(rangeErr.Cap).To(Equal(100))
			})

			It("should reject a whitespace-only message", func() {
				// When
				_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 10, Message: "   "}, transfer.OriginWeb)

				// Then
				Expect(err).To(MatchError(transfer.ErrMissingMessage))
				Expect(mockRepo.transactions).To(BeEmpty())
			})

			It("should check the self-transfer rule before the amount range", func() {
				// Given: both preconditions violated
				dto := transfer.SendCoinsDTO{ReceiverID: "alice", Coins: 9999, Message: "me"}

				// When
				_, err := service.SubmitTransfer(ctx, "alice", dto, transfer.OriginWeb)

				// Then
				Expect(err).To(MatchError(transfer.ErrSelfTransfer))
			})
		})

		Context("when the store fails", func() {
			It("should surface a store error, not a quota rejection", func() {
				// Given
				mockRepo.submitError = errors.New("connection reset")

				// When
				_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 10, Message: "hi"}, transfer.OriginWeb)

				// Then
				Expect(err).To(MatchError(transfer.ErrStoreUnavailable))
			})
		})
	})

	Describe("RemainingAllowance", func() {
		It("should report allowance plus bonus minus the non-bonus sent sum", func() {
			// Given
			mockRepo.parties["alice"].BonusCoins = 20
			_, err := service.SubmitTransfer(ctx, "alice", transfer.SendCoinsDTO{ReceiverID: "bob", Coins: 70, Message: "hi"}, transfer.OriginWeb)
			Expect(err).ToNot(HaveOccurred())

			// When
			remaining, err := service.RemainingAllowance("alice")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(remaining.Remaining).To(Equal(200))
			Expect(remaining.WeekStart).To(Equal(transfer.WeekStartDate(time.Now())))
		})

		It("should exclude bonus rows from quota consumption", func() {
			// Given
			_, err := service.RecordBonus(ctx, "bob", "alice", 50, "launch week")
			Expect(err).ToNot(HaveOccurred())

			// When: the bonus row has alice as receiver, but a granted bonus
			// recorded for bob as sender must not count against bob either
			remaining, err := service.RemainingAllowance("bob")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(remaining.Remaining).To(Equal(250))
		})

		It("should surface a store failure instead of reporting zero", func() {
			// Given
			mockRepo.sumError = errors.New("timeout")

			// When
			_, err := service.RemainingAllowance("alice")

			// Then
			Expect(err).To(MatchError(transfer.ErrStoreUnavailable))
		})
	})

	Describe("RecordBonus", func() {
		It("should write a bonus-tagged row that bypasses the quota", func() {
			// When
			result, err := service.RecordBonus(ctx, "bob", "alice", 500, "quarter MVP")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.IsBonus).To(BeTrue())
			Expect(result.Coins).To(Equal(500))
			Expect(result.Message).To(Equal("[Bonus] quarter MVP"))
			Expect(mockRepo.transactions).To(HaveLen(1))
		})

		It("should surface a store failure", func() {
			// Given
			mockRepo.createError = errors.New("down")

			// When
			_, err := service.RecordBonus(ctx, "bob", "alice", 10, "reason")

			// Then
			Expect(err).To(MatchError(transfer.ErrStoreUnavailable))
		})
	})
})
