package errors

import (
	"fmt"

	"github.com/google/uuid"
)

// InsufficientStock reports a line item whose requested quantity exceeds stock on hand.
func InsufficientStock(productID uuid.UUID, productName string, requested, available fmt.Stringer) *Error {
	return New(CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", productName)).
		WithDetails(map[string]any{
			"product_id":   productID.String(),
			"product_name": productName,
			"requested":    requested.String(),
			"available":    available.String(),
		})
}

// SlotFull reports a pickup slot with no remaining capacity on the given date.
func SlotFull(slotID, pickupDate string, maxOrders int) *Error {
	return New(CodeSlotFull, fmt.Sprintf("pickup slot %s on %s is fully booked", slotID, pickupDate)).
		WithDetails(map[string]any{
			"slot_id":     slotID,
			"pickup_date": pickupDate,
			"max_orders":  maxOrders,
		})
}

// PaymentExceedsBalance rejects a payment that would push total_paid past total_amount.
func PaymentExceedsBalance(saleNumber string, balance, attempted fmt.Stringer) *Error {
	return New(CodePaymentExceedsBalance,
		fmt.Sprintf("payment of %s exceeds balance %s on sale %s", attempted, balance, saleNumber)).
		WithDetails(map[string]any{
			"sale_number": saleNumber,
			"balance":     balance.String(),
			"attempted":   attempted.String(),
		})
}

// InsufficientFunds rejects a wallet debit larger than the current balance.
func InsufficientFunds(userID uuid.UUID, attempted, balance fmt.Stringer) *Error {
	return New(CodeInsufficientFunds,
		fmt.Sprintf("wallet balance %s is less than %s", balance, attempted)).
		WithDetails(map[string]any{
			"user_id":   userID.String(),
			"attempted": attempted.String(),
			"balance":   balance.String(),
		})
}

// InvalidTransition rejects a lifecycle move that the entity's current state does not allow.
func InvalidTransition(entity string, id uuid.UUID, from, to string) *Error {
	return New(CodeInvalidTransition, fmt.Sprintf("%s cannot move from %s to %s", entity, from, to)).
		WithDetails(map[string]any{
			"entity": entity,
			"id":     id.String(),
			"from":   from,
			"to":     to,
		})
}
