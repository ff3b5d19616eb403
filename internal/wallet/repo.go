package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
)

// Repository persists wallet accounts and their append-only entries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// LockAccount creates the account row on first use and locks it for the rest of the transaction.
func (r *Repository) LockAccount(ctx context.Context, userID uuid.UUID) (*models.WalletAccount, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WalletAccount{UserID: userID}).Error
	if err != nil {
		return nil, err
	}

	var account models.WalletAccount
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Latest returns the newest entry, or gorm.ErrRecordNotFound for an empty wallet.
func (r *Repository) Latest(ctx context.Context, userID uuid.UUID) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sequence DESC").
		Limit(1).
		Take(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Append inserts the entry and advances the account's sequence pointer.
func (r *Repository) Append(ctx context.Context, entry *models.WalletTransaction) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.WalletAccount{}).
		Where("user_id = ?", entry.UserID).
		Update("last_sequence", entry.Sequence).Error
}

// List returns up to limit entries newest first, starting below beforeSeq when it is positive.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, beforeSeq int64, limit int) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if beforeSeq > 0 {
		query = query.Where("sequence < ?", beforeSeq)
	}
	var entries []models.WalletTransaction
	err := query.Order("sequence DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
