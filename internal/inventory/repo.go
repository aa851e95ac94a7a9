package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
)

// Repository manages persistence for the inventory ledger and its
// on-hand projection.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	CreateTransaction(ctx context.Context, entry *models.InventoryTransaction) error
	GetProjection(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error)
	GetProjectionForUpdate(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error)
	SaveProjection(ctx context.Context, projection *models.InventoryItem) error
	ListTransactions(ctx context.Context, itemID uuid.UUID, limit int) ([]models.InventoryTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateTransaction(ctx context.Context, entry *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) GetProjection(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error) {
	var projection models.InventoryItem
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&projection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &projection, nil
}

// GetProjectionForUpdate locks the projection row so concurrent ledger
// appends for the same item serialize.
func (r *repository) GetProjectionForUpdate(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error) {
	var projection models.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ?", itemID).
		First(&projection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &projection, nil
}

func (r *repository) SaveProjection(ctx context.Context, projection *models.InventoryItem) error {
	return r.db.WithContext(ctx).Save(projection).Error
}

func (r *repository) ListTransactions(ctx context.Context, itemID uuid.UUID, limit int) ([]models.InventoryTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("occurred_at DESC, created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []models.InventoryTransaction
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
