package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MovementInput captures one manual stock move.
type MovementInput struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
	Reason   *string
	Actor    *string
}

// ReceiptEntry is a delivery applied by the orders service inside its
// own transaction.
type ReceiptEntry struct {
	ItemID          uuid.UUID
	Quantity        decimal.Decimal
	PurchaseOrderID uuid.UUID
	LineID          uuid.UUID
	Actor           *string
}

// Service records ledger entries and answers on-hand queries.
type Service interface {
	Issue(ctx context.Context, input MovementInput) (*models.InventoryTransaction, error)
	Adjust(ctx context.Context, input MovementInput) (*models.InventoryTransaction, error)
	OnHand(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, itemID uuid.UUID, limit int) ([]models.InventoryTransaction, error)
	ApplyReceipt(ctx context.Context, tx *gorm.DB, entry ReceiptEntry) (*models.InventoryTransaction, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires the inventory ledger service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// Issue removes stock. Quantity is the positive amount taken out.
func (s *service) Issue(ctx context.Context, input MovementInput) (*models.InventoryTransaction, error) {
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issue quantity must be positive")
	}
	return s.record(ctx, enums.TransactionTypeIssue, input.ItemID, input.Quantity.Neg(), input.Reason, input.Actor, nil, nil)
}

// Adjust corrects stock by a signed delta.
func (s *service) Adjust(ctx context.Context, input MovementInput) (*models.InventoryTransaction, error) {
	if input.Quantity.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}
	return s.record(ctx, enums.TransactionTypeAdjust, input.ItemID, input.Quantity, input.Reason, input.Actor, nil, nil)
}

func (s *service) record(
	ctx context.Context,
	txType enums.TransactionType,
	itemID uuid.UUID,
	delta decimal.Decimal,
	reason *string,
	actor *string,
	orderID *uuid.UUID,
	lineID *uuid.UUID,
) (*models.InventoryTransaction, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	var entry *models.InventoryTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, appendErr := s.appendLocked(ctx, s.repo.WithTx(tx), txType, itemID, delta, reason, actor, orderID, lineID)
		if appendErr != nil {
			return appendErr
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ApplyReceipt appends a RECEIVE entry using the caller's transaction.
// The orders service calls this so receipt, ledger append and status
// recompute commit atomically.
func (s *service) ApplyReceipt(ctx context.Context, tx *gorm.DB, entry ReceiptEntry) (*models.InventoryTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction handle required")
	}
	if !entry.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt quantity must be positive")
	}
	orderID := entry.PurchaseOrderID
	lineID := entry.LineID
	return s.appendLocked(ctx, s.repo.WithTx(tx), enums.TransactionTypeReceive, entry.ItemID, entry.Quantity, nil, entry.Actor, &orderID, &lineID)
}

func (s *service) appendLocked(
	ctx context.Context,
	repo Repository,
	txType enums.TransactionType,
	itemID uuid.UUID,
	delta decimal.Decimal,
	reason *string,
	actor *string,
	orderID *uuid.UUID,
	lineID *uuid.UUID,
) (*models.InventoryTransaction, error) {
	if _, err := repo.FindItem(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading item")
	}

	projection, err := repo.GetProjectionForUpdate(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking on-hand projection")
	}
	if projection == nil {
		projection = &models.InventoryItem{ItemID: itemID, OnHand: decimal.Zero}
	}

	entry := &models.InventoryTransaction{
		ID:              uuid.New(),
		ItemID:          itemID,
		Type:            txType,
		Quantity:        delta,
		PurchaseOrderID: orderID,
		LineID:          lineID,
		Reason:          reason,
		Actor:           actor,
		OccurredAt:      s.now().UTC(),
	}
	if err := repo.CreateTransaction(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending ledger entry")
	}

	projection.OnHand = projection.OnHand.Add(delta)
	if err := repo.SaveProjection(ctx, projection); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating on-hand projection")
	}

	return entry, nil
}

// OnHand returns the projected quantity for the item, zero when the
// item never moved.
func (s *service) OnHand(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	if itemID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	projection, err := s.repo.GetProjection(ctx, itemID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading on-hand projection")
	}
	if projection == nil {
		return decimal.Zero, nil
	}
	return projection.OnHand, nil
}

func (s *service) History(ctx context.Context, itemID uuid.UUID, limit int) ([]models.InventoryTransaction, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	entries, err := s.repo.ListTransactions(ctx, itemID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing ledger entries")
	}
	return entries, nil
}
