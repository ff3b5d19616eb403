// Package pickup allocates capacity in the fixed daily pickup slots.
package pickup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
)

// AvailabilityDTO is one slot on one date as the storefront sees it.
type AvailabilityDTO struct {
	SlotID     string       `json:"slot_id"`
	Label      string       `json:"label"`
	PickupDate dbtypes.Date `json:"pickup_date"`
	PickupTime time.Time    `json:"pickup_time"`
	MaxOrders  int          `json:"max_orders"`
	Booked     int          `json:"booked"`
	Remaining  int          `json:"remaining"`
	Available  bool         `json:"available"`
}

type Service struct {
	db      *gorm.DB
	catalog *Catalog
	now     func() time.Time
}

func NewService(db *gorm.DB, catalog *Catalog) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("pickup catalog required")
	}
	return &Service{db: db, catalog: catalog, now: time.Now}, nil
}

func (s *Service) Catalog() *Catalog { return s.catalog }

func (s *Service) slot(slotID string) (Slot, error) {
	slot, ok := s.catalog.Slot(slotID)
	if !ok {
		return Slot{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown pickup slot %q", slotID)).
			WithDetails(map[string]any{"slot_id": slotID})
	}
	return slot, nil
}

// Resolve validates the slot and returns its pickup instant on date.
func (s *Service) Resolve(slotID string, date dbtypes.Date) (Slot, time.Time, error) {
	slot, err := s.slot(slotID)
	if err != nil {
		return Slot{}, time.Time{}, err
	}
	at, err := s.catalog.PickupTime(slotID, date)
	if err != nil {
		return Slot{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve pickup time")
	}
	return slot, at, nil
}

// PickupTime resolves the pickup instant of slotID on date in the business zone.
func (s *Service) PickupTime(slotID string, date dbtypes.Date) (time.Time, error) {
	_, at, err := s.Resolve(slotID, date)
	return at, err
}

// CheckAvailability returns the remaining capacity of the slot on date.
func (s *Service) CheckAvailability(ctx context.Context, slotID string, date dbtypes.Date) (int, error) {
	slot, err := s.slot(slotID)
	if err != nil {
		return 0, err
	}
	booked, err := s.bookedCount(ctx, s.db, slotID, date)
	if err != nil {
		return 0, err
	}
	return remaining(slot, booked), nil
}

// Reserve books one order into the slot. The increment is conditional, so concurrent callers cannot overbook.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, slotID string, date dbtypes.Date) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	slot, err := s.slot(slotID)
	if err != nil {
		return err
	}

	err = tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PickupSlotBooking{SlotID: slotID, PickupDate: date}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure slot booking row")
	}

	res := tx.WithContext(ctx).Exec(
		`UPDATE pickup_slot_bookings SET booked_count = booked_count + 1, updated_at = ?
		 WHERE slot_id = ? AND pickup_date = ? AND booked_count < ?`,
		s.now().UTC(), slotID, date, slot.MaxOrders,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve pickup slot")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.SlotFull(slotID, date.String(), slot.MaxOrders)
	}
	return nil
}

// Release gives back one booking. The count never drops below zero.
func (s *Service) Release(ctx context.Context, tx *gorm.DB, slotID string, date dbtypes.Date) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	err := tx.WithContext(ctx).Exec(
		`UPDATE pickup_slot_bookings SET booked_count = booked_count - 1, updated_at = ?
		 WHERE slot_id = ? AND pickup_date = ? AND booked_count > 0`,
		s.now().UTC(), slotID, date,
	).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release pickup slot")
	}
	return nil
}

// ListAvailability returns every slot on date with its bookings.
func (s *Service) ListAvailability(ctx context.Context, date dbtypes.Date) ([]AvailabilityDTO, error) {
	var rows []models.PickupSlotBooking
	if err := s.db.WithContext(ctx).Where("pickup_date = ?", date).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slot bookings")
	}
	booked := make(map[string]int, len(rows))
	for _, row := range rows {
		booked[row.SlotID] = row.BookedCount
	}

	now := s.now()
	out := make([]AvailabilityDTO, 0, len(s.catalog.slots))
	for _, slot := range s.catalog.Slots() {
		at, err := s.catalog.PickupTime(slot.ID, date)
		if err != nil {
			return nil, err
		}
		left := remaining(slot, booked[slot.ID])
		out = append(out, AvailabilityDTO{
			SlotID:     slot.ID,
			Label:      slot.Label,
			PickupDate: date,
			PickupTime: at,
			MaxOrders:  slot.MaxOrders,
			Booked:     booked[slot.ID],
			Remaining:  left,
			Available:  left > 0 && at.After(now),
		})
	}
	return out, nil
}

func (s *Service) bookedCount(ctx context.Context, db *gorm.DB, slotID string, date dbtypes.Date) (int, error) {
	var row models.PickupSlotBooking
	err := db.WithContext(ctx).Where("slot_id = ? AND pickup_date = ?", slotID, date).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slot booking")
	}
	return row.BookedCount, nil
}

func remaining(slot Slot, booked int) int {
	if left := slot.MaxOrders - booked; left > 0 {
		return left
	}
	return 0
}
