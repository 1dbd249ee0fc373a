package postgres

import (
	"errors"
	"strings"

	reactionDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/reaction"
	transferDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/transfer"
	"github.com/akira-ishikawa-jpg/coin-system/internal/reaction"
	"gorm.io/gorm"
)

// ReactionRepository implements the reaction.Repository interface using GORM.
type ReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) reaction.Repository {
	return &ReactionRepository{db: db}
}

func (r *ReactionRepository) GetTransactionSender(transactionID string) (string, error) {
	var txn transferDatamodel.CoinTransaction
	err := r.db.Select("sender_id").Where("id = ?", transactionID).First(&txn).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", reaction.ErrTransferNotFound
		}
		return "", err
	}
	return txn.SenderID, nil
}

func (r *ReactionRepository) Exists(transactionID, employeeID string) (bool, error) {
	var count int64
	err := r.db.Model(&reactionDatamodel.TransactionLike{}).
		Where("transaction_id = ? AND employee_id = ?", transactionID, employeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReactionRepository) Insert(like *reactionDatamodel.TransactionLike) error {
	err := r.db.Create(like).Error
	if err != nil && isDuplicateKey(err) {
		return reaction.ErrAlreadyLiked
	}
	return err
}

func (r *ReactionRepository) Delete(transactionID, employeeID string) error {
	return r.db.
		Where("transaction_id = ? AND employee_id = ?", transactionID, employeeID).
		Delete(&reactionDatamodel.TransactionLike{}).Error
}

func (r *ReactionRepository) Count(transactionID string) (int, error) {
	var count int64
	err := r.db.Model(&reactionDatamodel.TransactionLike{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return int(count), err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
