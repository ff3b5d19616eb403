package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
)

// Repository persists sales and their payments.
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

func (r *Repository) locked() *gorm.DB {
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(sale).Error
}

func (r *Repository) SaveSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(sale).Error
}

func (r *Repository) FindSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) FindSaleByOrder(ctx context.Context, orderID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&sale, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) LockSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.locked().WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) LockSaleByOrder(ctx context.Context, orderID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.locked().WithContext(ctx).First(&sale, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *Repository) SavePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *Repository) FindPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) LockPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.locked().WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// LockPayments locks every payment of the sale, oldest first.
func (r *Repository) LockPayments(ctx context.Context, saleID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.locked().WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *Repository) ListPayments(ctx context.Context, saleID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

// MarkOverdue flips every unpaid, past-due, live sale to overdue in one statement.
func (r *Repository) MarkOverdue(ctx context.Context, today dbtypes.Date, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE sales SET payment_status = ?, updated_at = ?
		 WHERE payment_status IN (?, ?)
		   AND fulfillment_status <> ?
		   AND due_date IS NOT NULL AND due_date < ?
		   AND balance > 0`,
		enums.SaleOverdue, now,
		enums.SaleNoPayment, enums.SalePartialPayment,
		enums.SaleCancelled,
		today,
	)
	return result.RowsAffected, result.Error
}

// ListDebtCandidates returns live sales with a balance, due on or before horizon, not yet warned today.
func (r *Repository) ListDebtCandidates(ctx context.Context, today, horizon dbtypes.Date, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Where("fulfillment_status <> ?", enums.SaleCancelled).
		Where("balance > 0").
		Where("due_date IS NOT NULL AND due_date <= ?", horizon).
		Where("(last_debt_warning_on IS NULL OR last_debt_warning_on <> ?)", today).
		Order("due_date ASC, id ASC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}

// ListOverdue returns overdue sales that have not had a reminder today.
func (r *Repository) ListOverdue(ctx context.Context, today dbtypes.Date, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", enums.SaleOverdue).
		Where("fulfillment_status <> ?", enums.SaleCancelled).
		Where("balance > 0").
		Where("(last_overdue_reminder_on IS NULL OR last_overdue_reminder_on <> ?)", today).
		Order("due_date ASC, id ASC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}
