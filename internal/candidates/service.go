package candidates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

// Candidate is one orderable row on the staging screen. Managed
// candidates come from low-stock catalog items, unmanaged ones from
// staged off-catalog requests.
type Candidate struct {
	Kind              enums.LineKind   `json:"kind"`
	ItemID            *uuid.UUID       `json:"item_id,omitempty"`
	RequestID         *uuid.UUID       `json:"request_id,omitempty"`
	Name              string           `json:"name"`
	Unit              string           `json:"unit"`
	OnHand            *decimal.Decimal `json:"on_hand,omitempty"`
	ReorderPoint      *int             `json:"reorder_point,omitempty"`
	SuggestedQuantity decimal.Decimal  `json:"suggested_quantity"`
	SupplierID        *uuid.UUID       `json:"supplier_id,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty"`
	Note              *string          `json:"note,omitempty"`
}

// Service builds the merged candidate list.
type Service interface {
	BuildCandidates(ctx context.Context, department *string) ([]Candidate, error)
}

type service struct {
	repo Repository
}

// NewService wires the candidate aggregator.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("candidates repository required")
	}
	return &service{repo: repo}, nil
}

// BuildCandidates is a pure read. Managed candidates are ordered by
// item code, unmanaged ones by request age; managed always precede
// unmanaged.
func (s *service) BuildCandidates(ctx context.Context, department *string) ([]Candidate, error) {
	managed, err := s.buildManaged(ctx, department)
	if err != nil {
		return nil, err
	}
	unmanaged, err := s.buildUnmanaged(ctx, department)
	if err != nil {
		return nil, err
	}
	return append(managed, unmanaged...), nil
}

func (s *service) buildManaged(ctx context.Context, department *string) ([]Candidate, error) {
	items, err := s.repo.ListActiveManagedItems(ctx, department)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing managed items")
	}
	if len(items) == 0 {
		return nil, nil
	}

	itemIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}

	projections, err := s.repo.GetProjections(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading on-hand projections")
	}
	onHand := map[uuid.UUID]decimal.Decimal{}
	for _, projection := range projections {
		onHand[projection.ItemID] = projection.OnHand
	}

	openItemIDs, err := s.repo.ListOpenOrderItemIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing open order items")
	}
	onOpenOrder := map[uuid.UUID]struct{}{}
	for _, id := range openItemIDs {
		onOpenOrder[id] = struct{}{}
	}

	priceRows, err := s.repo.ListPriceRows(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading price list")
	}
	cheapest := cheapestByItem(priceRows)

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		if _, open := onOpenOrder[item.ID]; open {
			continue
		}
		stock := onHand[item.ID]
		if stock.GreaterThanOrEqual(decimal.NewFromInt(int64(item.ReorderPoint))) {
			continue
		}

		itemID := item.ID
		reorderPoint := item.ReorderPoint
		stockCopy := stock
		candidate := Candidate{
			Kind:              enums.LineKindManaged,
			ItemID:            &itemID,
			Name:              item.Name,
			Unit:              item.Unit,
			OnHand:            &stockCopy,
			ReorderPoint:      &reorderPoint,
			SuggestedQuantity: suggestedQuantity(item),
		}
		if row, ok := cheapest[item.ID]; ok {
			supplierID := row.SupplierID
			candidate.SupplierID = &supplierID
			if row.UnitPrice.Valid {
				price := row.UnitPrice.Decimal
				candidate.UnitPrice = &price
			}
		} else if item.DefaultSupplierID != nil {
			candidate.SupplierID = item.DefaultSupplierID
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (s *service) buildUnmanaged(ctx context.Context, department *string) ([]Candidate, error) {
	requests, err := s.repo.ListStagedPendingRequests(ctx, department)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing staged requests")
	}

	candidates := make([]Candidate, 0, len(requests))
	for _, request := range requests {
		requestID := request.ID
		unit := "ea"
		if request.Unit != nil {
			unit = *request.Unit
		}
		candidate := Candidate{
			Kind:              enums.LineKindUnmanaged,
			RequestID:         &requestID,
			Name:              request.Name,
			Unit:              unit,
			SuggestedQuantity: request.Quantity,
			SupplierID:        request.SupplierID,
			Note:              request.Note,
		}
		if request.UnitPrice.Valid {
			price := request.UnitPrice.Decimal
			candidate.UnitPrice = &price
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// cheapestByItem prefers the lowest priced row; rows with a null price
// never win over a priced one.
func cheapestByItem(rows []models.ItemSupplier) map[uuid.UUID]models.ItemSupplier {
	best := map[uuid.UUID]models.ItemSupplier{}
	for _, row := range rows {
		current, ok := best[row.ItemID]
		if !ok {
			best[row.ItemID] = row
			continue
		}
		switch {
		case !row.UnitPrice.Valid:
		case !current.UnitPrice.Valid:
			best[row.ItemID] = row
		case row.UnitPrice.Decimal.LessThan(current.UnitPrice.Decimal):
			best[row.ItemID] = row
		}
	}
	return best
}

func suggestedQuantity(item models.Item) decimal.Decimal {
	if item.DefaultOrderQuantity < 1 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(item.DefaultOrderQuantity))
}
