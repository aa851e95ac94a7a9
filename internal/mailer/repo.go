package mailer

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
)

// Repository covers the order, supplier, price list and email log
// access the mailer needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	SaveOrder(ctx context.Context, order *models.PurchaseOrder) error
	CreateEmailLog(ctx context.Context, entry *models.EmailSendLog) error
	ListEmailLogs(ctx context.Context, orderID uuid.UUID) ([]models.EmailSendLog, error)
	FindPriceRow(ctx context.Context, itemID, supplierID uuid.UUID) (*models.ItemSupplier, error)
	CreatePriceRow(ctx context.Context, row *models.ItemSupplier) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a mailer repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
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

func (r *repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) SaveOrder(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Lines").Save(order).Error
}

func (r *repository) CreateEmailLog(ctx context.Context, entry *models.EmailSendLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEmailLogs(ctx context.Context, orderID uuid.UUID) ([]models.EmailSendLog, error) {
	var found []models.EmailSendLog
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at DESC").
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
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

func (r *repository) CreatePriceRow(ctx context.Context, row *models.ItemSupplier) error {
	return r.db.WithContext(ctx).Create(row).Error
}
