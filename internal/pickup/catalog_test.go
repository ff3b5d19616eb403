package pickup

import (
	"testing"
	"time"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/config"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := NewCatalog(config.PickupConfig{Timezone: "Africa/Nairobi"})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	slots := catalog.Slots()
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	if slots[0].ID != "15:30" || slots[len(slots)-1].ID != "05:30" {
		t.Fatalf("unexpected slot order %s..%s", slots[0].ID, slots[len(slots)-1].ID)
	}
	evening, ok := catalog.Slot("19:30")
	if !ok || evening.MaxOrders != 15 || evening.Label != "7:30 PM - 8:30 PM" {
		t.Fatalf("unexpected 19:30 slot %+v", evening)
	}
	late, _ := catalog.Slot("23:30")
	if late.MaxOrders != 8 || late.Label != "11:30 PM - 12:30 AM" {
		t.Fatalf("unexpected 23:30 slot %+v", late)
	}
}

func TestPickupTimeRollsNightSlotsToNextDay(t *testing.T) {
	catalog, err := NewCatalog(config.PickupConfig{Timezone: "Africa/Nairobi"})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	date := dbtypes.NewDate(2026, time.March, 1)

	evening, err := catalog.PickupTime("19:30", date)
	if err != nil {
		t.Fatalf("pickup time: %v", err)
	}
	if evening.Day() != 1 || evening.Hour() != 19 || evening.Minute() != 30 {
		t.Fatalf("unexpected evening pickup %v", evening)
	}
	if got := evening.UTC().Hour(); got != 16 {
		t.Fatalf("expected 16:30 UTC for Nairobi, got hour %d", got)
	}

	night, err := catalog.PickupTime("02:30", date)
	if err != nil {
		t.Fatalf("pickup time: %v", err)
	}
	if night.Day() != 2 || night.Hour() != 2 {
		t.Fatalf("expected night slot on March 2, got %v", night)
	}

	if _, err := catalog.PickupTime("12:00", date); err == nil {
		t.Fatalf("expected unknown slot error")
	}
}

func TestSlotOverride(t *testing.T) {
	catalog, err := NewCatalog(config.PickupConfig{Timezone: "UTC", Slots: "01:00=3, 18:00=2"})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	slots := catalog.Slots()
	if len(slots) != 2 || slots[0].ID != "18:00" || slots[1].ID != "01:00" {
		t.Fatalf("expected evening slot before night slot, got %+v", slots)
	}

	for _, raw := range []string{"18:00", "18:00=0", "25:00=3", "18:00=2,18:00=4", " , "} {
		if _, err := NewCatalog(config.PickupConfig{Slots: raw}); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
