package enums

import "fmt"

// LineKind distinguishes catalog-backed order lines from staged
// off-catalog requests carried on the same order.
type LineKind string

const (
	LineKindManaged   LineKind = "managed"
	LineKindUnmanaged LineKind = "unmanaged"
)

var validLineKinds = []LineKind{
	LineKindManaged,
	LineKindUnmanaged,
}

// String implements fmt.Stringer.
func (k LineKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known LineKind.
func (k LineKind) IsValid() bool {
	for _, candidate := range validLineKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLineKind converts raw input into a LineKind.
func ParseLineKind(value string) (LineKind, error) {
	for _, candidate := range validLineKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line kind %q", value)
}
