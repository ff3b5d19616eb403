package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

type str string

func (s str) String() string { return string(s) }

func TestPaymentExceedsBalanceCarriesDiagnostics(t *testing.T) {
	err := PaymentExceedsBalance("SALE-2026-001", str("400.00"), str("500.00"))

	if err.Code() != CodePaymentExceedsBalance {
		t.Fatalf("unexpected code %s", err.Code())
	}
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected map details, got %T", err.Details())
	}
	if details["sale_number"] != "SALE-2026-001" || details["balance"] != "400.00" || details["attempted"] != "500.00" {
		t.Fatalf("unexpected details %+v", details)
	}
	if MetadataFor(err.Code()).HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for overpayment")
	}
}

func TestDomainErrorsSurviveWrapping(t *testing.T) {
	slot := SlotFull("19:30", "2026-03-01", 15)
	wrapped := fmt.Errorf("placing order: %w", slot)

	if !Is(wrapped, CodeSlotFull) {
		t.Fatalf("expected wrapped error to carry SLOT_FULL")
	}
	if Is(wrapped, CodeInsufficientStock) {
		t.Fatalf("did not expect INSUFFICIENT_STOCK")
	}
	if MetadataFor(CodeSlotFull).HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409 for slot full")
	}
}

func TestInvalidTransitionDetails(t *testing.T) {
	id := uuid.New()
	err := InvalidTransition("order", id, "picked_up", "cancelled")
	details := err.Details().(map[string]any)
	if details["id"] != id.String() || details["from"] != "picked_up" || details["to"] != "cancelled" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestInsufficientFundsAndStock(t *testing.T) {
	user := uuid.New()
	funds := InsufficientFunds(user, str("50.00"), str("10.00"))
	if funds.Code() != CodeInsufficientFunds {
		t.Fatalf("unexpected code %s", funds.Code())
	}
	stock := InsufficientStock(uuid.New(), "Sugar 2kg", str("3.000"), str("1.000"))
	if stock.Details().(map[string]any)["product_name"] != "Sugar 2kg" {
		t.Fatalf("expected product name in details")
	}
}
