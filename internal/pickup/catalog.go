package pickup

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/config"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
)

// nightCutoff is the hour before which a slot belongs to the previous evening's pickup date.
const nightCutoff = 6

// Slot is one bookable pickup hour.
type Slot struct {
	ID        string
	Label     string
	MaxOrders int
	hour      int
	minute    int
	order     int
}

var defaultSlots = []struct {
	id        string
	maxOrders int
}{
	{"15:30", 10}, {"16:30", 10}, {"17:30", 12}, {"18:30", 12}, {"19:30", 15},
	{"20:30", 15}, {"21:30", 12}, {"22:30", 10}, {"23:30", 8},
	{"00:30", 15}, {"01:30", 15}, {"02:30", 15}, {"03:30", 15}, {"04:30", 15}, {"05:30", 15},
}

// Catalog is the static slot list plus the business time zone.
type Catalog struct {
	slots []Slot
	byID  map[string]Slot
	loc   *time.Location
}

// NewCatalog builds the default catalog, or the override in cfg.Slots.
func NewCatalog(cfg config.PickupConfig) (*Catalog, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var slots []Slot
	if strings.TrimSpace(cfg.Slots) == "" {
		for _, def := range defaultSlots {
			slot, err := newSlot(def.id, def.maxOrders)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot)
		}
	} else {
		slots, err = ParseSlots(cfg.Slots)
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].order < slots[j].order })
	byID := make(map[string]Slot, len(slots))
	for _, slot := range slots {
		if _, dup := byID[slot.ID]; dup {
			return nil, fmt.Errorf("duplicate pickup slot %q", slot.ID)
		}
		byID[slot.ID] = slot
	}
	return &Catalog{slots: slots, byID: byID, loc: loc}, nil
}

// ParseSlots reads "15:30=10,16:30=10".
func ParseSlots(raw string) ([]Slot, error) {
	var slots []Slot
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, maxRaw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("pickup slot %q: expected id=max", part)
		}
		maxOrders, err := strconv.Atoi(strings.TrimSpace(maxRaw))
		if err != nil {
			return nil, fmt.Errorf("pickup slot %q: %w", part, err)
		}
		slot, err := newSlot(strings.TrimSpace(id), maxOrders)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("pickup slot list is empty")
	}
	return slots, nil
}

func newSlot(id string, maxOrders int) (Slot, error) {
	start, err := time.Parse("15:04", id)
	if err != nil {
		return Slot{}, fmt.Errorf("pickup slot %q: invalid start time", id)
	}
	if maxOrders <= 0 {
		return Slot{}, fmt.Errorf("pickup slot %q: max orders must be positive", id)
	}
	order := start.Hour()*60 + start.Minute()
	if start.Hour() < nightCutoff {
		order += 24 * 60
	}
	return Slot{
		ID:        id,
		Label:     start.Format("3:04 PM") + " - " + start.Add(time.Hour).Format("3:04 PM"),
		MaxOrders: maxOrders,
		hour:      start.Hour(),
		minute:    start.Minute(),
		order:     order,
	}, nil
}

// Slot looks up a slot by id.
func (c *Catalog) Slot(id string) (Slot, bool) {
	slot, ok := c.byID[id]
	return slot, ok
}

// Slots returns the catalog in pickup order.
func (c *Catalog) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c *Catalog) Location() *time.Location { return c.loc }

// PickupTime resolves the start of slot on date. Night slots land on the next calendar day.
func (c *Catalog) PickupTime(slotID string, date dbtypes.Date) (time.Time, error) {
	slot, ok := c.byID[slotID]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown pickup slot %q", slotID)
	}
	day := date
	if slot.hour < nightCutoff {
		day = date.AddDays(1)
	}
	midnight := day.In(c.loc)
	return time.Date(midnight.Year(), midnight.Month(), midnight.Day(), slot.hour, slot.minute, 0, 0, c.loc), nil
}

// Today is the current calendar day in the business zone.
func (c *Catalog) Today(now time.Time) dbtypes.Date {
	return dbtypes.DateOf(now.In(c.loc))
}
