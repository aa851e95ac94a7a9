package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/internal/inventory"
	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

// allowedTransitions is the explicit transition table. WAITING is
// absent on purpose: it is only reachable through a successful email
// dispatch.
var allowedTransitions = map[enums.PurchaseOrderStatus][]enums.PurchaseOrderStatus{
	enums.PurchaseOrderStatusDraft: {
		enums.PurchaseOrderStatusOrdered,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusOrdered: {
		enums.PurchaseOrderStatusReceived,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusWaiting: {
		enums.PurchaseOrderStatusReceived,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusPartiallyReceived: {
		enums.PurchaseOrderStatusReceived,
		enums.PurchaseOrderStatusCancelled,
	},
}

func transitionAllowed(from, to enums.PurchaseOrderStatus) bool {
	for _, target := range allowedTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Transition moves the order to the requested status. Moving to
// RECEIVED applies the full remaining receipt; moving to CANCELLED
// reverts converted requests to PENDING.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target enums.PurchaseOrderStatus, actor *string) (*models.PurchaseOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", target))
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if !transitionAllowed(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}

		switch target {
		case enums.PurchaseOrderStatusOrdered:
			if order.IssuedAt == nil {
				issuedAt := s.now().UTC()
				order.IssuedAt = &issuedAt
			}
		case enums.PurchaseOrderStatusReceived:
			if err := s.receiveRemaining(ctx, tx, repo, order, actor); err != nil {
				return err
			}
		case enums.PurchaseOrderStatusCancelled:
			if err := revertConvertedRequests(ctx, repo, order); err != nil {
				return err
			}
		}

		order.Status = target
		if err := repo.SaveOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// Receive applies per-line delivery deltas. Over-receipt on any line
// rejects the whole receipt with no ledger writes.
func (s *service) Receive(ctx context.Context, input ReceiptInput) (*models.PurchaseOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt needs at least one line")
	}
	for i, line := range input.Lines {
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("receipt line %d quantity must be positive", i))
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("receipt line %d unit price must not be negative", i))
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := lockOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case enums.PurchaseOrderStatusOrdered,
			enums.PurchaseOrderStatusWaiting,
			enums.PurchaseOrderStatusPartiallyReceived:
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot receive against a %s order", order.Status))
		}

		lineByID := map[uuid.UUID]*models.PurchaseOrderLine{}
		for i := range order.Lines {
			lineByID[order.Lines[i].ID] = &order.Lines[i]
		}

		// Validate every delta before touching anything.
		for _, delta := range input.Lines {
			line, ok := lineByID[delta.LineID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("line %s does not belong to this order", delta.LineID))
			}
			if delta.Quantity.GreaterThan(line.Remaining()) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("line %s over-receipt: %s remaining, %s delivered",
						delta.LineID, line.Remaining(), delta.Quantity))
			}
		}

		for _, delta := range input.Lines {
			line := lineByID[delta.LineID]
			line.ReceivedQuantity = line.ReceivedQuantity.Add(delta.Quantity)
			if delta.UnitPrice != nil {
				line.UnitPrice = decimal.NewNullDecimal(*delta.UnitPrice)
			}
			if err := repo.SaveLine(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving received line")
			}

			if line.Kind != enums.LineKindManaged || line.ItemID == nil {
				continue
			}
			if _, err := s.inventory.ApplyReceipt(ctx, tx, inventory.ReceiptEntry{
				ItemID:          *line.ItemID,
				Quantity:        delta.Quantity,
				PurchaseOrderID: order.ID,
				LineID:          line.ID,
				Actor:           input.Actor,
			}); err != nil {
				return err
			}
			if delta.UnitPrice != nil {
				if err := s.recordPrice(ctx, repo, *line.ItemID, order.SupplierID, order.ID, *delta.UnitPrice); err != nil {
					return err
				}
			}
		}

		order.Status = recomputeStatus(order)
		if err := repo.SaveOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncReceipt()
	return s.Get(ctx, input.OrderID)
}

// SetReplyDueDate transcribes the supplier's confirmed delivery reply
// onto the line. Each line carries its own date; transcribing one line
// never touches the others. Valid in any non-terminal state.
func (s *service) SetReplyDueDate(ctx context.Context, lineID uuid.UUID, date time.Time) (*models.PurchaseOrder, error) {
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLine(ctx, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading line")
		}

		order, err := lockOrder(ctx, repo, line.PurchaseOrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot set reply due date on a %s order", order.Status))
		}

		due := date.UTC()
		line.ReplyDueDate = &due
		if err := repo.SaveLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving reply due date")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *service) receiveRemaining(ctx context.Context, tx *gorm.DB, repo Repository, order *models.PurchaseOrder, actor *string) error {
	for i := range order.Lines {
		line := &order.Lines[i]
		remaining := line.Remaining()
		if !remaining.IsPositive() {
			continue
		}
		line.ReceivedQuantity = line.Quantity
		if err := repo.SaveLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving received line")
		}
		if line.Kind != enums.LineKindManaged || line.ItemID == nil {
			continue
		}
		if _, err := s.inventory.ApplyReceipt(ctx, tx, inventory.ReceiptEntry{
			ItemID:          *line.ItemID,
			Quantity:        remaining,
			PurchaseOrderID: order.ID,
			LineID:          line.ID,
			Actor:           actor,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) recordPrice(ctx context.Context, repo Repository, itemID, supplierID, orderID uuid.UUID, price decimal.Decimal) error {
	row, err := repo.FindPriceRow(ctx, itemID, supplierID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading price row")
	}
	if row == nil {
		row = &models.ItemSupplier{
			ID:         uuid.New(),
			ItemID:     itemID,
			SupplierID: supplierID,
		}
	}
	row.UnitPrice = decimal.NewNullDecimal(price)
	if err := repo.SavePriceRow(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving price row")
	}

	history := &models.UnitPriceHistory{
		ID:              uuid.New(),
		ItemID:          itemID,
		SupplierID:      supplierID,
		UnitPrice:       price,
		PurchaseOrderID: &orderID,
		RecordedAt:      s.now().UTC(),
	}
	if err := repo.CreatePriceHistory(ctx, history); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending price history")
	}
	return nil
}

func revertConvertedRequests(ctx context.Context, repo Repository, order *models.PurchaseOrder) error {
	requestIDs := make([]uuid.UUID, 0, len(order.Lines))
	for _, line := range order.Lines {
		if line.UnmanagedRequestID != nil {
			requestIDs = append(requestIDs, *line.UnmanagedRequestID)
		}
	}
	if len(requestIDs) == 0 {
		return nil
	}

	requests, err := repo.FindRequestsByIDs(ctx, requestIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading converted requests")
	}
	for i := range requests {
		request := requests[i]
		if request.Status != enums.RequestStatusConverted {
			continue
		}
		request.Status = enums.RequestStatusPending
		request.ConvertedOrderID = nil
		request.ConvertedLineID = nil
		if err := repo.SaveRequest(ctx, &request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reverting request")
		}
	}
	return nil
}

func recomputeStatus(order *models.PurchaseOrder) enums.PurchaseOrderStatus {
	allFull := true
	anyReceived := false
	for _, line := range order.Lines {
		if !line.FullyReceived() {
			allFull = false
		}
		if line.ReceivedQuantity.IsPositive() {
			anyReceived = true
		}
	}
	switch {
	case allFull:
		return enums.PurchaseOrderStatusReceived
	case anyReceived:
		return enums.PurchaseOrderStatusPartiallyReceived
	default:
		return order.Status
	}
}

func lockOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking order")
	}
	return order, nil
}
