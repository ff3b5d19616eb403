package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func itemsOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// CreateOrder inserts the order together with its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsOrdered).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder re-reads the order FOR UPDATE and loads its items.
func (r *repository) LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := itemsOrdered(r.db.WithContext(ctx)).Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CodeInUse reports whether an order that is still to be collected carries the code.
func (r *repository) CodeInUse(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("pickup_verification_code = ?", code).
		Where("fulfillment_status IN ?", []enums.FulfillmentStatus{enums.FulfillmentAwaiting, enums.FulfillmentReady}).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindActiveByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsOrdered).
		Where("pickup_verification_code = ?", code).
		Where("fulfillment_status IN ?", []enums.FulfillmentStatus{enums.FulfillmentAwaiting, enums.FulfillmentReady}).
		Order("pickup_time ASC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByPickupDate(ctx context.Context, date dbtypes.Date, statuses []enums.FulfillmentStatus) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).
		Preload("Items", itemsOrdered).
		Where("pickup_date = ?", date)
	if len(statuses) > 0 {
		q = q.Where("fulfillment_status IN ?", statuses)
	}
	err := q.Order("pickup_time ASC, order_number ASC").Find(&orders).Error
	return orders, err
}

// ListForUser pages newest first with a (created_at, id) cursor.
func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).
		Preload("Items", itemsOrdered).
		Where("user_id = ?", userID)
	if cursor != nil {
		at := cursor.CreatedAt.UTC()
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", at, at, cursor.ID)
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *repository) ListMissedPickups(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("fulfillment_status = ?", enums.FulfillmentReady).
		Where("pickup_time < ?", cutoff.UTC()).
		Order("pickup_time ASC, id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repository) ListReminderDue(ctx context.Context, from, to time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("fulfillment_status = ?", enums.FulfillmentReady).
		Where("order_status <> ?", enums.OrderStatusCancelled).
		Where("reminder_sent_at IS NULL").
		Where("pickup_time > ? AND pickup_time <= ?", from.UTC(), to.UTC()).
		Order("pickup_time ASC, id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// MarkReminderSent sets the one-shot reminder flag. It reports false when another run set it first.
func (r *repository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND reminder_sent_at IS NULL", id).
		Updates(map[string]any{"reminder_sent_at": at.UTC(), "updated_at": at.UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
