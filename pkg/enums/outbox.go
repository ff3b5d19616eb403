package enums

import "fmt"

// OutboxAggregateType maps to the outbox_events.aggregate_type column.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregateSale         OutboxAggregateType = "sale"
	AggregatePayment      OutboxAggregateType = "payment"
	AggregateWallet       OutboxAggregateType = "wallet"
	AggregateNotification OutboxAggregateType = "notification"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateSale,
	AggregatePayment,
	AggregateWallet,
	AggregateNotification,
}

// String implements fmt.Stringer.
func (v OutboxAggregateType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (v OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into a OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validOutboxAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the outbox_events.event_type column.
type OutboxEventType string

const (
	EventOrderPlaced           OutboxEventType = "order_placed"
	EventOrderConfirmed        OutboxEventType = "order_confirmed"
	EventOrderReady            OutboxEventType = "order_ready"
	EventOrderCancelled        OutboxEventType = "order_cancelled"
	EventOrderPickedUp         OutboxEventType = "order_picked_up"
	EventPaymentRecorded       OutboxEventType = "payment_recorded"
	EventPaymentVerified       OutboxEventType = "payment_verified"
	EventPaymentFailed         OutboxEventType = "payment_failed"
	EventPaymentRefunded       OutboxEventType = "payment_refunded"
	EventSaleFullyPaid         OutboxEventType = "sale_fully_paid"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderConfirmed,
	EventOrderReady,
	EventOrderCancelled,
	EventOrderPickedUp,
	EventPaymentRecorded,
	EventPaymentVerified,
	EventPaymentFailed,
	EventPaymentRefunded,
	EventSaleFullyPaid,
	EventNotificationRequested,
}

// String implements fmt.Stringer.
func (v OutboxEventType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OutboxEventType.
func (v OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into a OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why a row stopped being retried.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonUnroutable means the row has no registered descriptor or its envelope failed to decode.
	OutboxDLQReasonUnroutable   OutboxDLQErrorReason = "unroutable"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonUnroutable, OutboxDLQReasonNonRetryable, OutboxDLQReasonMaxAttempts:
		return true
	}
	return false
}
