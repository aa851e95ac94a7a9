package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Lines").Create(order).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.PurchaseOrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderForUpdate locks the order row so lifecycle transitions for
// the same order serialize.
func (r *repository) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	var lines []models.PurchaseOrderLine
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, filter OrderFilter) ([]models.PurchaseOrder, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	var found []models.PurchaseOrder
	if err := query.Order("created_at DESC").Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *repository) SaveOrder(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Lines").Save(order).Error
}

func (r *repository) FindLine(ctx context.Context, lineID uuid.UUID) (*models.PurchaseOrderLine, error) {
	var line models.PurchaseOrderLine
	if err := r.db.WithContext(ctx).Where("id = ?", lineID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) SaveLine(ctx context.Context, line *models.PurchaseOrderLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *repository) FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Item
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) FindRequestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.UnmanagedOrderRequest
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *repository) SaveRequest(ctx context.Context, request *models.UnmanagedOrderRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *repository) FindPriceRow(ctx context.Context, itemID, supplierID uuid.UUID) (*models.ItemSupplier, error) {
	var row models.ItemSupplier
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND supplier_id = ?", itemID, supplierID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) SavePriceRow(ctx context.Context, row *models.ItemSupplier) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) CreatePriceHistory(ctx context.Context, entry *models.UnitPriceHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
