package postgres

import (
	"errors"
	"strings"

	employeeDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/employee"
	transferDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/transfer"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransferRepository implements the transfer.Repository interface using GORM.
type TransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) transfer.Repository {
	return &TransferRepository{db: db}
}

// Submit records the transaction and enforces the weekly quota atomically.
// The sender's employee row is locked for the duration so concurrent
// transfers from the same sender serialize on the quota check.
func (r *TransferRepository) Submit(txn *transferDatamodel.CoinTransaction, weeklyAllowance int) (int, error) {
	var remaining int

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var sender employeeDatamodel.Employee
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", txn.SenderID).
			First(&sender).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return transfer.ErrUnknownParty
			}
			return err
		}

		var sent int64
		if err := tx.Model(&transferDatamodel.CoinTransaction{}).
			Select("COALESCE(SUM(coins), 0)").
			Where("sender_id = ? AND week_start = ? AND is_bonus = ?", txn.SenderID, txn.WeekStart, false).
			Scan(&sent).Error; err != nil {
			return err
		}

		available := weeklyAllowance + sender.BonusCoins - int(sent)
		if txn.Coins > available {
			return &transfer.QuotaExceededError{Remaining: available}
		}

		if err := tx.Create(txn).Error; err != nil {
			if isDuplicateKey(err) {
				return transfer.ErrDuplicateDedupKey
			}
			return err
		}

		remaining = available - txn.Coins
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *TransferRepository) Create(txn *transferDatamodel.CoinTransaction) error {
	return r.db.Create(txn).Error
}

func (r *TransferRepository) GetByID(id string) (*transferDatamodel.CoinTransaction, error) {
	var txn transferDatamodel.CoinTransaction
	err := r.db.Where("id = ?", id).First(&txn).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, transfer.ErrTransferNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransferRepository) GetByDedupKey(key string) (*transferDatamodel.CoinTransaction, error) {
	var txn transferDatamodel.CoinTransaction
	err := r.db.Where("dedup_key = ?", key).First(&txn).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, transfer.ErrTransferNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *TransferRepository) GetParty(employeeID string) (*transfer.Party, error) {
	var emp employeeDatamodel.Employee
	err := r.db.Where("id = ?", employeeID).First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, transfer.ErrUnknownParty
		}
		return nil, err
	}
	party := &transfer.Party{
		ID:         emp.ID,
		Name:       emp.Name,
		BonusCoins: emp.BonusCoins,
		IsActive:   emp.IsActive,
	}
	if emp.SlackID != nil {
		party.SlackID = *emp.SlackID
	}
	return party, nil
}

func (r *TransferRepository) SumSentInPeriod(senderID, weekStart string) (int, error) {
	var sent int64
	err := r.db.Model(&transferDatamodel.CoinTransaction{}).
		Select("COALESCE(SUM(coins), 0)").
		Where("sender_id = ? AND week_start = ? AND is_bonus = ?", senderID, weekStart, false).
		Scan(&sent).Error
	return int(sent), err
}

func (r *TransferRepository) ListRecent(limit, offset int) ([]*transfer.Transfer, error) {
	return r.list(r.db, limit, offset)
}

func (r *TransferRepository) ListForEmployee(employeeID string, limit, offset int) ([]*transfer.Transfer, error) {
	scoped := r.db.Where("coin_transactions.sender_id = ? OR coin_transactions.receiver_id = ?", employeeID, employeeID)
	return r.list(scoped, limit, offset)
}

func (r *TransferRepository) list(tx *gorm.DB, limit, offset int) ([]*transfer.Transfer, error) {
	var rows []*transfer.Transfer
	err := tx.Model(&transferDatamodel.CoinTransaction{}).
		Select("coin_transactions.*, COUNT(transaction_likes.employee_id) AS like_count").
		Joins("LEFT JOIN transaction_likes ON transaction_likes.transaction_id = coin_transactions.id").
		Group("coin_transactions.id").
		Order("coin_transactions.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx and sqlite surface the violation with different wording.
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
