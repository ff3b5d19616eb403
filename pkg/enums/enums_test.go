package enums

import "testing"

func TestParseRoundTrips(t *testing.T) {
	if got, err := ParseSalePaymentStatus("partial-payment"); err != nil || got != SalePartialPayment {
		t.Fatalf("unexpected %q %v", got, err)
	}
	if _, err := ParseSalePaymentStatus("partial"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
	if got, err := ParseFulfillmentStatus("picked_up"); err != nil || got != FulfillmentPickedUp {
		t.Fatalf("unexpected %q %v", got, err)
	}
	if !NotificationDebtWarningAdmin.IsValid() || NotificationType("sms_blast").IsValid() {
		t.Fatalf("notification type validation broken")
	}
	if !OutboxDLQReasonUnroutable.IsValid() || OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatalf("dlq reason validation broken")
	}
}

func TestLifecycleHelpers(t *testing.T) {
	if !FulfillmentCancelled.IsTerminal() || !FulfillmentPickedUp.IsTerminal() || FulfillmentReady.IsTerminal() {
		t.Fatalf("fulfillment terminal states wrong")
	}
	if !PaymentMethodCash.SettlesImmediately() || PaymentMethodMpesa.SettlesImmediately() {
		t.Fatalf("settlement helper wrong")
	}
	if PaymentStatusPending.CountsTowardPaid() || !PaymentStatusRefunded.CountsTowardPaid() {
		t.Fatalf("paid helper wrong")
	}
}
