package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
)

// Repository loads orders for rendering and persists document metadata.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	SaveOrder(ctx context.Context, order *models.PurchaseOrder) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a documents repository bound to the provided DB.
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
