package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/internal/candidates"
	"github.com/mizusaki/procureflow-backend/internal/inventory"
	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventoryApplier interface {
	ApplyReceipt(ctx context.Context, tx *gorm.DB, entry inventory.ReceiptEntry) (*models.InventoryTransaction, error)
}

type candidateSource interface {
	BuildCandidates(ctx context.Context, department *string) ([]candidates.Candidate, error)
}

// Service builds purchase orders and drives their lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.PurchaseOrder, error)
	CreateBulkFromLowStock(ctx context.Context, department *string, createdBy *string) (*BulkResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, filter OrderFilter) ([]models.PurchaseOrder, error)
	Transition(ctx context.Context, orderID uuid.UUID, target enums.PurchaseOrderStatus, actor *string) (*models.PurchaseOrder, error)
	Receive(ctx context.Context, input ReceiptInput) (*models.PurchaseOrder, error)
	SetReplyDueDate(ctx context.Context, lineID uuid.UUID, date time.Time) (*models.PurchaseOrder, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	inventory  inventoryApplier
	candidates candidateSource
	metrics    *metrics.DispatchMetrics
	now        func() time.Time
}

// NewService wires the purchase order service.
func NewService(repo Repository, tx txRunner, inv inventoryApplier, source candidateSource, m *metrics.DispatchMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory applier required")
	}
	if source == nil {
		return nil, fmt.Errorf("candidate source required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		inventory:  inv,
		candidates: source,
		metrics:    m,
		now:        time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter OrderFilter) ([]models.PurchaseOrder, error) {
	found, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return found, nil
}

// CreateOrder validates supplier consistency across every line and
// converts referenced requests atomically with the order itself.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.PurchaseOrder, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line")
	}

	itemIDs := make([]uuid.UUID, 0, len(input.Lines))
	requestIDs := make([]uuid.UUID, 0, len(input.Lines))
	seenRequests := map[uuid.UUID]struct{}{}
	for i, line := range input.Lines {
		if (line.ItemID == nil) == (line.RequestID == nil) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d must reference exactly one of item or request", i))
		}
		if line.Quantity.LessThan(decimal.NewFromInt(1)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d quantity must be at least 1", i))
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d unit price must not be negative", i))
		}
		if line.ItemID != nil {
			itemIDs = append(itemIDs, *line.ItemID)
		}
		if line.RequestID != nil {
			if _, dup := seenRequests[*line.RequestID]; dup {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("request %s referenced twice", *line.RequestID))
			}
			seenRequests[*line.RequestID] = struct{}{}
			requestIDs = append(requestIDs, *line.RequestID)
		}
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items, err := loadItems(ctx, repo, itemIDs)
		if err != nil {
			return err
		}

		// Requests are re-fetched inside the transaction. A request
		// unstaged or converted since the candidate screen loaded is a
		// staleness conflict, not a validation mistake.
		requests, err := loadStagedRequests(ctx, repo, requestIDs)
		if err != nil {
			return err
		}

		supplierID, err := resolveSupplier(input, items, requests)
		if err != nil {
			return err
		}
		if _, err := repo.FindSupplier(ctx, supplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "supplier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier")
		}

		orderDate := s.now().UTC()
		if input.OrderDate != nil {
			orderDate = input.OrderDate.UTC()
		}
		order := &models.PurchaseOrder{
			ID:         uuid.New(),
			SupplierID: supplierID,
			Status:     enums.PurchaseOrderStatusDraft,
			OrderDate:  orderDate,
			Department: input.Department,
			Note:       input.Note,
			CreatedBy:  input.CreatedBy,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}

		lines, lineByRequest, err := buildLines(ctx, repo, order.ID, supplierID, input.Lines, items, requests)
		if err != nil {
			return err
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order lines")
		}

		for i := range requests {
			request := requests[i]
			lineID := lineByRequest[request.ID]
			request.Status = enums.RequestStatusConverted
			request.ConvertedOrderID = &order.ID
			request.ConvertedLineID = &lineID
			request.SupplierID = nil
			request.StagedAt = nil
			if err := repo.SaveRequest(ctx, &request); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "converting request")
			}
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// CreateBulkFromLowStock groups the current candidates per resolved
// supplier and creates one order per group. Candidates without a
// resolvable supplier are skipped and counted.
func (s *service) CreateBulkFromLowStock(ctx context.Context, department *string, createdBy *string) (*BulkResult, error) {
	list, err := s.candidates.BuildCandidates(ctx, department)
	if err != nil {
		return nil, err
	}

	groups := map[uuid.UUID][]CreateOrderLineInput{}
	skipped := 0
	for _, candidate := range list {
		if candidate.SupplierID == nil {
			skipped++
			continue
		}
		line := CreateOrderLineInput{
			ItemID:     candidate.ItemID,
			RequestID:  candidate.RequestID,
			Quantity:   candidate.SuggestedQuantity,
			UnitPrice:  candidate.UnitPrice,
			SupplierID: candidate.SupplierID,
		}
		groups[*candidate.SupplierID] = append(groups[*candidate.SupplierID], line)
	}

	supplierIDs := make([]uuid.UUID, 0, len(groups))
	for supplierID := range groups {
		supplierIDs = append(supplierIDs, supplierID)
	}
	sort.Slice(supplierIDs, func(i, j int) bool {
		return supplierIDs[i].String() < supplierIDs[j].String()
	})

	result := &BulkResult{Skipped: skipped}
	for _, supplierID := range supplierIDs {
		target := supplierID
		order, err := s.CreateOrder(ctx, CreateOrderInput{
			SupplierID: &target,
			Department: department,
			CreatedBy:  createdBy,
			Lines:      groups[supplierID],
		})
		if err != nil {
			return nil, err
		}
		result.OrderIDs = append(result.OrderIDs, order.ID)
	}
	return result, nil
}

func loadItems(ctx context.Context, repo Repository, itemIDs []uuid.UUID) (map[uuid.UUID]models.Item, error) {
	found, err := repo.FindItemsByIDs(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading items")
	}
	items := map[uuid.UUID]models.Item{}
	for _, item := range found {
		items[item.ID] = item
	}
	for _, id := range itemIDs {
		if _, ok := items[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s not found", id))
		}
	}
	return items, nil
}

func loadStagedRequests(ctx context.Context, repo Repository, requestIDs []uuid.UUID) ([]models.UnmanagedOrderRequest, error) {
	found, err := repo.FindRequestsByIDs(ctx, requestIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading requests")
	}
	byID := map[uuid.UUID]models.UnmanagedOrderRequest{}
	for _, request := range found {
		byID[request.ID] = request
	}
	ordered := make([]models.UnmanagedOrderRequest, 0, len(requestIDs))
	for _, id := range requestIDs {
		request, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("request %s not found", id))
		}
		if request.Status != enums.RequestStatusPending || request.SupplierID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("request %s is no longer staged and pending", id))
		}
		ordered = append(ordered, request)
	}
	return ordered, nil
}

func resolveSupplier(input CreateOrderInput, items map[uuid.UUID]models.Item, requests []models.UnmanagedOrderRequest) (uuid.UUID, error) {
	requestSupplier := map[uuid.UUID]uuid.UUID{}
	for _, request := range requests {
		requestSupplier[request.ID] = *request.SupplierID
	}

	resolved := uuid.Nil
	if input.SupplierID != nil {
		resolved = *input.SupplierID
	}
	for i, line := range input.Lines {
		var lineSupplier uuid.UUID
		switch {
		case line.RequestID != nil:
			lineSupplier = requestSupplier[*line.RequestID]
		case line.SupplierID != nil:
			lineSupplier = *line.SupplierID
		default:
			item := items[*line.ItemID]
			if item.DefaultSupplierID == nil {
				return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("line %d has no supplier and item %s has no default", i, item.SKU))
			}
			lineSupplier = *item.DefaultSupplierID
		}

		if resolved == uuid.Nil {
			resolved = lineSupplier
			continue
		}
		if lineSupplier != resolved {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation,
				"all lines of an order must resolve to the same supplier")
		}
	}
	return resolved, nil
}

func buildLines(
	ctx context.Context,
	repo Repository,
	orderID uuid.UUID,
	supplierID uuid.UUID,
	inputs []CreateOrderLineInput,
	items map[uuid.UUID]models.Item,
	requests []models.UnmanagedOrderRequest,
) ([]models.PurchaseOrderLine, map[uuid.UUID]uuid.UUID, error) {
	requestByID := map[uuid.UUID]models.UnmanagedOrderRequest{}
	for _, request := range requests {
		requestByID[request.ID] = request
	}

	lines := make([]models.PurchaseOrderLine, 0, len(inputs))
	lineByRequest := map[uuid.UUID]uuid.UUID{}
	for _, input := range inputs {
		line := models.PurchaseOrderLine{
			ID:              uuid.New(),
			PurchaseOrderID: orderID,
			Quantity:        input.Quantity,
			Note:            input.Note,
		}
		if input.UnitPrice != nil {
			line.UnitPrice = decimal.NewNullDecimal(*input.UnitPrice)
		}

		if input.ItemID != nil {
			item := items[*input.ItemID]
			itemID := item.ID
			unit := item.Unit
			line.Kind = enums.LineKindManaged
			line.ItemID = &itemID
			line.Description = item.Name
			line.Unit = &unit
			if !line.UnitPrice.Valid {
				row, err := repo.FindPriceRow(ctx, item.ID, supplierID)
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading price row")
				}
				if row != nil && row.UnitPrice.Valid {
					line.UnitPrice = row.UnitPrice
				}
			}
		} else {
			request := requestByID[*input.RequestID]
			requestID := request.ID
			line.Kind = enums.LineKindUnmanaged
			line.UnmanagedRequestID = &requestID
			line.Description = request.Name
			line.Unit = request.Unit
			if !line.UnitPrice.Valid {
				line.UnitPrice = request.UnitPrice
			}
			lineByRequest[request.ID] = line.ID
		}
		lines = append(lines, line)
	}
	return lines, lineByRequest, nil
}
