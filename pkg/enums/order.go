package enums

import "fmt"

// OrderStatus tracks the commercial state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (v OrderStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OrderStatus.
func (v OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsTerminal reports whether no further transition is allowed.
func (v OrderStatus) IsTerminal() bool {
	return v == OrderStatusCancelled
}

// FulfillmentStatus tracks the pickup side of an order.
type FulfillmentStatus string

const (
	FulfillmentAwaiting  FulfillmentStatus = "awaiting"
	FulfillmentReady     FulfillmentStatus = "ready"
	FulfillmentPickedUp  FulfillmentStatus = "picked_up"
	FulfillmentCancelled FulfillmentStatus = "cancelled"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentAwaiting,
	FulfillmentReady,
	FulfillmentPickedUp,
	FulfillmentCancelled,
}

// String implements fmt.Stringer.
func (v FulfillmentStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (v FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}

// IsTerminal reports whether the order has left the pickup queue.
func (v FulfillmentStatus) IsTerminal() bool {
	return v == FulfillmentPickedUp || v == FulfillmentCancelled
}

// CancelActor identifies who requested a cancellation.
type CancelActor string

const (
	CancelActorAdmin  CancelActor = "admin"
	CancelActorSystem CancelActor = "system"
)

var validCancelActors = []CancelActor{
	CancelActorAdmin,
	CancelActorSystem,
}

// String implements fmt.Stringer.
func (v CancelActor) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CancelActor.
func (v CancelActor) IsValid() bool {
	for _, candidate := range validCancelActors {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCancelActor converts raw input into a CancelActor.
func ParseCancelActor(value string) (CancelActor, error) {
	for _, candidate := range validCancelActors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancel actor %q", value)
}
