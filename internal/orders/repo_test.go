package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	suppliers := `
CREATE TABLE IF NOT EXISTS suppliers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT,
  cc_email TEXT,
  phone TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  unit TEXT NOT NULL,
  reorder_point INTEGER NOT NULL DEFAULT 0,
  default_order_quantity INTEGER NOT NULL DEFAULT 0,
  default_supplier_id TEXT,
  department TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	itemSuppliers := `
CREATE TABLE IF NOT EXISTS item_suppliers (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  unit_price TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchaseOrders := `
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  supplier_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  order_date DATETIME NOT NULL,
  issued_at DATETIME,
  department TEXT,
  document_path TEXT,
  document_version INTEGER NOT NULL DEFAULT 0,
  note TEXT,
  created_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchaseOrderLines := `
CREATE TABLE IF NOT EXISTS purchase_order_lines (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  item_id TEXT,
  unmanaged_request_id TEXT,
  description TEXT NOT NULL,
  unit TEXT,
  quantity TEXT NOT NULL,
  unit_price TEXT,
  note TEXT,
  reply_due_date DATETIME,
  received_quantity TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`
	requests := `
CREATE TABLE IF NOT EXISTS unmanaged_order_requests (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit TEXT,
  supplier_id TEXT,
  unit_price TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  requested_by TEXT,
  requested_department TEXT,
  note TEXT,
  staged_at DATETIME,
  converted_order_id TEXT,
  converted_line_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	priceHistories := `
CREATE TABLE IF NOT EXISTS unit_price_histories (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  purchase_order_id TEXT,
  recorded_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(suppliers).Error)
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(itemSuppliers).Error)
	require.NoError(t, db.Exec(purchaseOrders).Error)
	require.NoError(t, db.Exec(purchaseOrderLines).Error)
	require.NoError(t, db.Exec(requests).Error)
	require.NoError(t, db.Exec(priceHistories).Error)
	return db
}

func seedOrder(t *testing.T, repo Repository, supplierID uuid.UUID, status enums.PurchaseOrderStatus) *models.PurchaseOrder {
	t.Helper()

	order := &models.PurchaseOrder{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Status:     status,
		OrderDate:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateOrder(context.Background(), order))
	return order
}

func TestRepositoryCreateAndFindOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	supplierID := uuid.New()
	order := seedOrder(t, repo, supplierID, enums.PurchaseOrderStatusDraft)

	itemID := uuid.New()
	unit := "ea"
	lines := []models.PurchaseOrderLine{
		{
			ID:              uuid.New(),
			PurchaseOrderID: order.ID,
			Kind:            enums.LineKindManaged,
			ItemID:          &itemID,
			Description:     "copy paper",
			Unit:            &unit,
			Quantity:        decimal.NewFromInt(10),
			UnitPrice:       decimal.NewNullDecimal(decimal.RequireFromString("3.50")),
		},
	}
	require.NoError(t, repo.CreateLines(ctx, lines))

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, enums.PurchaseOrderStatusDraft, found.Status)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "copy paper", found.Lines[0].Description)
	assert.True(t, found.Lines[0].Quantity.Equal(decimal.NewFromInt(10)))
}

func TestRepositoryListOrdersFilters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	seedOrder(t, repo, first, enums.PurchaseOrderStatusDraft)
	seedOrder(t, repo, first, enums.PurchaseOrderStatusOrdered)
	seedOrder(t, repo, second, enums.PurchaseOrderStatusOrdered)

	status := enums.PurchaseOrderStatusOrdered
	found, err := repo.ListOrders(ctx, OrderFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.ListOrders(ctx, OrderFilter{Status: &status, SupplierID: &second})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, second, found[0].SupplierID)
}

func TestRepositorySaveLineUpdatesReceipt(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, repo, uuid.New(), enums.PurchaseOrderStatusOrdered)
	itemID := uuid.New()
	line := models.PurchaseOrderLine{
		ID:              uuid.New(),
		PurchaseOrderID: order.ID,
		Kind:            enums.LineKindManaged,
		ItemID:          &itemID,
		Description:     "staples",
		Quantity:        decimal.NewFromInt(5),
	}
	require.NoError(t, repo.CreateLines(ctx, []models.PurchaseOrderLine{line}))

	loaded, err := repo.FindLine(ctx, line.ID)
	require.NoError(t, err)
	loaded.ReceivedQuantity = decimal.NewFromInt(3)
	require.NoError(t, repo.SaveLine(ctx, loaded))

	reloaded, err := repo.FindLine(ctx, line.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.ReceivedQuantity.Equal(decimal.NewFromInt(3)))
}

func TestRepositoryPriceRows(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	supplierID := uuid.New()

	_, err := repo.FindPriceRow(ctx, itemID, supplierID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	row := &models.ItemSupplier{
		ID:         uuid.New(),
		ItemID:     itemID,
		SupplierID: supplierID,
		UnitPrice:  decimal.NewNullDecimal(decimal.RequireFromString("1.25")),
	}
	require.NoError(t, repo.SavePriceRow(ctx, row))

	found, err := repo.FindPriceRow(ctx, itemID, supplierID)
	require.NoError(t, err)
	assert.True(t, found.UnitPrice.Decimal.Equal(decimal.RequireFromString("1.25")))

	history := &models.UnitPriceHistory{
		ID:         uuid.New(),
		ItemID:     itemID,
		SupplierID: supplierID,
		UnitPrice:  decimal.RequireFromString("1.25"),
		RecordedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreatePriceHistory(ctx, history))
}

func TestRepositoryRequestsRoundTrip(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	supplierID := uuid.New()
	request := &models.UnmanagedOrderRequest{
		ID:         uuid.New(),
		Name:       "label printer",
		Quantity:   decimal.NewFromInt(1),
		Status:     enums.RequestStatusPending,
		SupplierID: &supplierID,
	}
	require.NoError(t, db.WithContext(ctx).Create(request).Error)

	found, err := repo.FindRequestsByIDs(ctx, []uuid.UUID{request.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)

	found[0].Status = enums.RequestStatusConverted
	require.NoError(t, repo.SaveRequest(ctx, &found[0]))

	reloaded, err := repo.FindRequestsByIDs(ctx, []uuid.UUID{request.ID})
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, enums.RequestStatusConverted, reloaded[0].Status)
}
