package enums

import "fmt"

// WalletDirection is the sign of a wallet entry.
type WalletDirection string

const (
	WalletCredit WalletDirection = "credit"
	WalletDebit  WalletDirection = "debit"
)

var validWalletDirections = []WalletDirection{
	WalletCredit,
	WalletDebit,
}

// String implements fmt.Stringer.
func (v WalletDirection) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WalletDirection.
func (v WalletDirection) IsValid() bool {
	for _, candidate := range validWalletDirections {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWalletDirection converts raw input into a WalletDirection.
func ParseWalletDirection(value string) (WalletDirection, error) {
	for _, candidate := range validWalletDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet direction %q", value)
}

// WalletTransactionKind records why a wallet entry was written.
type WalletTransactionKind string

const (
	WalletKindRefund       WalletTransactionKind = "refund"
	WalletKindOverpayment  WalletTransactionKind = "overpayment"
	WalletKindUnderpayment WalletTransactionKind = "underpayment"
	WalletKindOrderPayment WalletTransactionKind = "order_payment"
	WalletKindAdjustment   WalletTransactionKind = "adjustment"
)

var validWalletTransactionKinds = []WalletTransactionKind{
	WalletKindRefund,
	WalletKindOverpayment,
	WalletKindUnderpayment,
	WalletKindOrderPayment,
	WalletKindAdjustment,
}

// String implements fmt.Stringer.
func (v WalletTransactionKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WalletTransactionKind.
func (v WalletTransactionKind) IsValid() bool {
	for _, candidate := range validWalletTransactionKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWalletTransactionKind converts raw input into a WalletTransactionKind.
func ParseWalletTransactionKind(value string) (WalletTransactionKind, error) {
	for _, candidate := range validWalletTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction kind %q", value)
}
