package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status     *enums.PurchaseOrderStatus
	SupplierID *uuid.UUID
}

// Repository defines persistence operations for purchase orders and
// the request rows they convert.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.PurchaseOrder) error
	CreateLines(ctx context.Context, lines []models.PurchaseOrderLine) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.PurchaseOrder, error)
	SaveOrder(ctx context.Context, order *models.PurchaseOrder) error
	FindLine(ctx context.Context, lineID uuid.UUID) (*models.PurchaseOrderLine, error)
	SaveLine(ctx context.Context, line *models.PurchaseOrderLine) error
	FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	FindRequestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error)
	SaveRequest(ctx context.Context, request *models.UnmanagedOrderRequest) error
	FindPriceRow(ctx context.Context, itemID, supplierID uuid.UUID) (*models.ItemSupplier, error)
	SavePriceRow(ctx context.Context, row *models.ItemSupplier) error
	CreatePriceHistory(ctx context.Context, entry *models.UnitPriceHistory) error
}
