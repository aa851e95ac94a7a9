package staging

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
)

// Repository exposes the persistence staging needs. It only ever
// touches requests and suppliers, never purchase orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRequestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error)
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	SaveRequest(ctx context.Context, request *models.UnmanagedOrderRequest) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a staging repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRequestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.UnmanagedOrderRequest
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) SaveRequest(ctx context.Context, request *models.UnmanagedOrderRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}
