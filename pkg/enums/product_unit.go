package enums

import "fmt"

// ProductUnit is how a product is counted when sold.
type ProductUnit string

const (
	UnitPiece    ProductUnit = "piece"
	UnitKilogram ProductUnit = "kg"
)

var validProductUnits = []ProductUnit{
	UnitPiece,
	UnitKilogram,
}

// String implements fmt.Stringer.
func (v ProductUnit) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ProductUnit.
func (v ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
