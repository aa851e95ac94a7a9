package enums

import "fmt"

// PurchaseOrderStatus tracks the lifecycle of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft             PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOrdered           PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusWaiting           PurchaseOrderStatus = "waiting"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "cancelled"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusOrdered,
	PurchaseOrderStatusWaiting,
	PurchaseOrderStatusPartiallyReceived,
	PurchaseOrderStatusReceived,
	PurchaseOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (p PurchaseOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (p PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (p PurchaseOrderStatus) IsTerminal() bool {
	return p == PurchaseOrderStatusReceived || p == PurchaseOrderStatusCancelled
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
