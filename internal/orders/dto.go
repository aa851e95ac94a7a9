package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderLineInput is one requested line. Exactly one of ItemID
// and RequestID must be set.
type CreateOrderLineInput struct {
	ItemID     *uuid.UUID
	RequestID  *uuid.UUID
	Quantity   decimal.Decimal
	UnitPrice  *decimal.Decimal
	SupplierID *uuid.UUID
	Note       *string
}

// CreateOrderInput captures an order built from the candidate screen.
type CreateOrderInput struct {
	SupplierID *uuid.UUID
	OrderDate  *time.Time
	Department *string
	Note       *string
	CreatedBy  *string
	Lines      []CreateOrderLineInput
}

// ReceiptLine is one delivered line delta.
type ReceiptLine struct {
	LineID    uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// ReceiptInput records a partial or full delivery.
type ReceiptInput struct {
	OrderID uuid.UUID
	Lines   []ReceiptLine
	Actor   *string
}

// BulkResult reports the per-supplier orders created from low stock.
type BulkResult struct {
	OrderIDs []uuid.UUID `json:"order_ids"`
	Skipped  int         `json:"skipped"`
}
