package models

import (
	"time"

	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
)

// PickupSlotBooking counts the active orders booked into a slot on a date.
type PickupSlotBooking struct {
	SlotID      string       `gorm:"column:slot_id;primaryKey"`
	PickupDate  dbtypes.Date `gorm:"column:pickup_date;type:date;primaryKey"`
	BookedCount int          `gorm:"column:booked_count;not null;check:booked_count >= 0"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
