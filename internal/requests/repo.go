package requests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// ListFilter narrows request listings.
type ListFilter struct {
	Status     *enums.RequestStatus
	Department *string
	StagedOnly bool
}

// Repository manages persistence for unmanaged order requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.UnmanagedOrderRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.UnmanagedOrderRequest, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error)
	List(ctx context.Context, filter ListFilter) ([]models.UnmanagedOrderRequest, error)
	Save(ctx context.Context, request *models.UnmanagedOrderRequest) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a requests repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.UnmanagedOrderRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.UnmanagedOrderRequest, error) {
	var request models.UnmanagedOrderRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error) {
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

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.UnmanagedOrderRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.UnmanagedOrderRequest{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Department != nil {
		query = query.Where("requested_department = ?", *filter.Department)
	}
	if filter.StagedOnly {
		query = query.Where("supplier_id IS NOT NULL")
	}
	var found []models.UnmanagedOrderRequest
	if err := query.Order("created_at ASC").Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *repository) Save(ctx context.Context, request *models.UnmanagedOrderRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}
