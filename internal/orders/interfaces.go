package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	SaveOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	FindActiveByCode(ctx context.Context, code string) (*models.Order, error)
	ListByPickupDate(ctx context.Context, date dbtypes.Date, statuses []enums.FulfillmentStatus) ([]models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListMissedPickups(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ListReminderDue(ctx context.Context, from, to time.Time, limit int) ([]models.Order, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}
