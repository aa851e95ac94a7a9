package candidates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// Repository exposes the reads the candidate aggregator needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActiveManagedItems(ctx context.Context, department *string) ([]models.Item, error)
	GetProjections(ctx context.Context, itemIDs []uuid.UUID) ([]models.InventoryItem, error)
	ListOpenOrderItemIDs(ctx context.Context) ([]uuid.UUID, error)
	ListPriceRows(ctx context.Context, itemIDs []uuid.UUID) ([]models.ItemSupplier, error)
	ListStagedPendingRequests(ctx context.Context, department *string) ([]models.UnmanagedOrderRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a candidates repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActiveManagedItems(ctx context.Context, department *string) ([]models.Item, error) {
	query := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("reorder_point > 0")
	if department != nil {
		query = query.Where("department IS NULL OR department = ?", *department)
	}
	var items []models.Item
	if err := query.Order("sku ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) GetProjections(ctx context.Context, itemIDs []uuid.UUID) ([]models.InventoryItem, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var projections []models.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Find(&projections).Error; err != nil {
		return nil, err
	}
	return projections, nil
}

// ListOpenOrderItemIDs returns item ids referenced by lines of orders
// that are still in flight. Candidates exclude them so the same item is
// not ordered twice.
func (r *repository) ListOpenOrderItemIDs(ctx context.Context) ([]uuid.UUID, error) {
	openStatuses := []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusOrdered,
		enums.PurchaseOrderStatusWaiting,
		enums.PurchaseOrderStatusPartiallyReceived,
	}
	var itemIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderLine{}).
		Distinct("purchase_order_lines.item_id").
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_lines.purchase_order_id").
		Where("purchase_orders.status IN ?", openStatuses).
		Where("purchase_order_lines.item_id IS NOT NULL").
		Pluck("purchase_order_lines.item_id", &itemIDs).Error
	if err != nil {
		return nil, err
	}
	return itemIDs, nil
}

func (r *repository) ListPriceRows(ctx context.Context, itemIDs []uuid.UUID) ([]models.ItemSupplier, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var rows []models.ItemSupplier
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListStagedPendingRequests(ctx context.Context, department *string) ([]models.UnmanagedOrderRequest, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.RequestStatusPending).
		Where("supplier_id IS NOT NULL")
	if department != nil {
		query = query.Where("requested_department = ?", *department)
	}
	var found []models.UnmanagedOrderRequest
	if err := query.Order("created_at ASC, id ASC").Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}
