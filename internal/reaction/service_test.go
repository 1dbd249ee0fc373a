package reaction_test

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	reactionDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/reaction"
	"github.com/akira-ishikawa-jpg/coin-system/internal/reaction"
)

// Mock repository backed by an in-memory like set.
type mockReactionRepository struct {
	senders     map[string]string
	likes       map[string]map[string]bool
	insertError error
}

func newMockReactionRepository() *mockReactionRepository {
	return &mockReactionRepository{
		senders: make(map[string]string),
		likes:   make(map[string]map[string]bool),
	}
}

func (m *mockReactionRepository) addTransaction(id, senderID string) {
	m.senders[id] = senderID
	m.likes[id] = make(map[string]bool)
}

func (m *mockReactionRepository) GetTransactionSender(transactionID string) (string, error) {
	sender, ok := m.senders[transactionID]
	if !ok {
		return "", reaction.ErrTransferNotFound
	}
	return sender, nil
}

func (m *mockReactionRepository) Exists(transactionID, employeeID string) (bool, error) {
	return m.likes[transactionID][employeeID], nil
}

func (m *mockReactionRepository) Insert(like *reactionDatamodel.TransactionLike) error {
	if m.insertError != nil {
		return m.insertError
	}
	if m.likes[like.TransactionID][like.EmployeeID] {
		return reaction.ErrAlreadyLiked
	}
	m.likes[like.TransactionID][like.EmployeeID] = true
	return nil
}

func (m *mockReactionRepository) Delete(transactionID, employeeID string) error {
	delete(m.likes[transactionID], employeeID)
	return nil
}

func (m *mockReactionRepository) Count(transactionID string) (int, error) {
	return len(m.likes[transactionID]), nil
}

var _ = Describe("ReactionService", func() {
	var (
		service  *reaction.Service
		mockRepo *mockReactionRepository
	)

	BeforeEach(func() {
		mockRepo = newMockReactionRepository()
		mockRepo.addTransaction("txn-1", "alice")
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = reaction.NewService(mockRepo, logger)
	})

	Describe("Toggle", func() {
		It("should like a transfer the employee has not liked yet", func() {
			// When
			result, err := service.Toggle("bob", "txn-1")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Liked).To(BeTrue())
			Expect(result.Count).To(Equal(1))
		})

		It("should unlike on the second toggle, returning to the starting state", func() {
			// Given
			_, err := service.Toggle("bob", "txn-1")
			Expect(err).ToNot(HaveOccurred())

			// When
			result, err := service.Toggle("bob", "txn-1")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Liked).To(BeFalse())
			Expect(result.Count).To(Equal(0))
		})

		It("should count distinct employees, not toggles", func() {
			// Given
			_, err := service.Toggle("bob", "txn-1")
			Expect(err).ToNot(HaveOccurred())

			// When
			result, err := service.Toggle("carol", "txn-1")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Count).To(Equal(2))
		})

		It("should reject a sender liking their own transfer", func() {
			// When
			result, err := service.Toggle("alice", "txn-1")

			// Then
			Expect(err).To(MatchError(reaction.ErrSelfLike))
			Expect(result).To(BeNil())
		})

		It("should reject an unknown transfer", func() {
			// When
			_, err := service.Toggle("bob", "missing")

			// Then
			Expect(err).To(MatchError(reaction.ErrTransferNotFound))
		})

		It("should report liked when losing an insert race for the same pair", func() {
			// Given: the row appears between the existence check and insert
			mockRepo.insertError = reaction.ErrAlreadyLiked

			// When
			result, err := service.Toggle("bob", "txn-1")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Liked).To(BeTrue())
		})
	})

	Describe("Count", func() {
		It("should return the current like count", func() {
			// Given
			_, err := service.Toggle("bob", "txn-1")
			Expect(err).ToNot(HaveOccurred())

			// When
			count, err := service.Count("txn-1")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("should reject an unknown transfer", func() {
			// When
			_, err := service.Count("missing")

			// Then
			Expect(err).To(MatchError(reaction.ErrTransferNotFound))
		})
	})
})
