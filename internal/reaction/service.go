package reaction

import (
	"errors"
	"log/slog"

	reactionDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/reaction"
	"github.com/akira-ishikawa-jpg/coin-system/internal/core/observability"
)

type Repository interface {
	// GetTransactionSender returns the sender of the transaction, or
	// ErrTransferNotFound.
	GetTransactionSender(transactionID string) (string, error)
	Exists(transactionID, employeeID string) (bool, error)
	// Insert returns ErrAlreadyLiked when the unique constraint fires.
	Insert(like *reactionDatamodel.TransactionLike) error
	Delete(transactionID, employeeID string) error
	Count(transactionID string) (int, error)
}

// ErrAlreadyLiked is the repository's translation of a unique violation on
// the (transaction, employee) pair.
var ErrAlreadyLiked = errors.New("already liked")

// Service toggles likes on transfers. A like is a single row keyed by
// (transaction, employee); toggling twice returns to the starting state.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Toggle flips the employee's like on a transfer and returns the resulting
// state with a fresh count. Senders cannot like their own transfers.
func (s *Service) Toggle(employeeID, transactionID string) (*ToggleResult, error) {
	senderID, err := s.repo.GetTransactionSender(transactionID)
	if err != nil {
		return nil, err
	}
	if senderID == employeeID {
		return nil, ErrSelfLike
	}

	liked, err := s.repo.Exists(transactionID, employeeID)
	if err != nil {
		return nil, err
	}

	if liked {
		if err := s.repo.Delete(transactionID, employeeID); err != nil {
			return nil, err
		}
		liked = false
	} else {
		err := s.repo.Insert(&reactionDatamodel.TransactionLike{
			TransactionID: transactionID,
			EmployeeID:    employeeID,
		})
		switch err {
		case nil:
			liked = true
		case ErrAlreadyLiked:
			// Raced with another toggle for the same pair; the row is
			// there, so report the liked state.
			liked = true
		default:
			return nil, err
		}
	}

	count, err := s.repo.Count(transactionID)
	if err != nil {
		return nil, err
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	observability.LikeTogglesTotal.WithLabelValues(state).Inc()

	s.logger.Debug("like toggled",
		"transaction_id", transactionID,
		"employee_id", employeeID,
		"liked", liked,
		"count", count)

	return &ToggleResult{Liked: liked, Count: count}, nil
}

// Count returns the current like count for a transfer.
func (s *Service) Count(transactionID string) (int, error) {
	if _, err := s.repo.GetTransactionSender(transactionID); err != nil {
		return 0, err
	}
	return s.repo.Count(transactionID)
}
