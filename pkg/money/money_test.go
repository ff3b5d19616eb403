package money

import (
	"encoding/json"
	"testing"
)

func TestAmountArithmeticKeepsCents(t *testing.T) {
	total := Sum(MustAmount("500"), MustAmount("300").Mul(QuantityFromInt(2)))
	if total.String() != "1100.00" {
		t.Fatalf("expected 1100.00, got %s", total)
	}

	paid := total.Sub(MustAmount("400"))
	if paid.String() != "700.00" {
		t.Fatalf("expected 700.00, got %s", paid)
	}

	// 0.1 + 0.2 must not drift the way binary floats do.
	if got := MustAmount("0.1").Add(MustAmount("0.2")); !got.Equal(MustAmount("0.3")) {
		t.Fatalf("expected exact 0.30, got %s", got)
	}
}

func TestAmountMulRoundsHalfUp(t *testing.T) {
	price := MustAmount("99.99")
	got := price.Mul(MustQuantity("0.335"))
	if got.String() != "33.50" {
		t.Fatalf("expected 33.50, got %s", got)
	}
}

func TestAmountComparisons(t *testing.T) {
	a := MustAmount("10")
	b := MustAmount("10.00")
	if !a.Equal(b) || a.Cmp(b) != 0 {
		t.Fatalf("expected %s == %s", a, b)
	}
	if !MustAmount("5").LessThan(a) || !a.GreaterThan(MustAmount("5")) {
		t.Fatalf("ordering broken")
	}
	if got := a.Min(MustAmount("3")); got.String() != "3.00" {
		t.Fatalf("expected min 3.00, got %s", got)
	}
	if !Zero.IsZero() || Zero.IsPositive() {
		t.Fatalf("zero value should be zero")
	}
	if !MustAmount("-1").IsNegative() {
		t.Fatalf("expected negative")
	}
}

func TestAmountScanFromDriverTypes(t *testing.T) {
	cases := []struct {
		src  any
		want string
	}{
		{src: "1100.00", want: "1100.00"},
		{src: []byte("12.5"), want: "12.50"},
		{src: int64(800), want: "800.00"},
		{src: float64(700.5), want: "700.50"},
		{src: nil, want: "0.00"},
	}
	for _, tc := range cases {
		var a Amount
		if err := a.Scan(tc.src); err != nil {
			t.Fatalf("scan %v: %v", tc.src, err)
		}
		if a.String() != tc.want {
			t.Fatalf("scan %v: expected %s got %s", tc.src, tc.want, a)
		}
	}

	var a Amount
	if err := a.Scan(true); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}

func TestAmountJSONAcceptsStringOrNumber(t *testing.T) {
	var body struct {
		Amount Amount `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount": 250.5}`), &body); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if body.Amount.String() != "250.50" {
		t.Fatalf("unexpected amount %s", body.Amount)
	}
	if err := json.Unmarshal([]byte(`{"amount": "99.999"}`), &body); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if body.Amount.String() != "100.00" {
		t.Fatalf("unexpected amount %s", body.Amount)
	}

	out, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"amount":"100.00"}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestQuantityRejectsNegative(t *testing.T) {
	if _, err := NewQuantity("-1"); err == nil {
		t.Fatalf("expected negative quantity to fail")
	}
	var q Quantity
	if err := json.Unmarshal([]byte(`"-2"`), &q); err == nil {
		t.Fatalf("expected negative json quantity to fail")
	}
	if got := MustQuantity("1.5").Add(MustQuantity("0.25")); got.String() != "1.750" {
		t.Fatalf("unexpected quantity %s", got)
	}
}
