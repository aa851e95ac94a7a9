package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/internal/candidates"
	"github.com/mizusaki/procureflow-backend/internal/inventory"
	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeInventory struct {
	entries []inventory.ReceiptEntry
}

func (f *fakeInventory) ApplyReceipt(ctx context.Context, tx *gorm.DB, entry inventory.ReceiptEntry) (*models.InventoryTransaction, error) {
	f.entries = append(f.entries, entry)
	return &models.InventoryTransaction{ID: uuid.New()}, nil
}

type fakeCandidateSource struct {
	list []candidates.Candidate
}

func (f *fakeCandidateSource) BuildCandidates(ctx context.Context, department *string) ([]candidates.Candidate, error) {
	return f.list, nil
}

type fakeRepository struct {
	orders    map[uuid.UUID]*models.PurchaseOrder
	lines     map[uuid.UUID]*models.PurchaseOrderLine
	items     map[uuid.UUID]*models.Item
	suppliers map[uuid.UUID]*models.Supplier
	requests  map[uuid.UUID]*models.UnmanagedOrderRequest
	priceRows map[[2]uuid.UUID]*models.ItemSupplier
	histories []*models.UnitPriceHistory
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		orders:    map[uuid.UUID]*models.PurchaseOrder{},
		lines:     map[uuid.UUID]*models.PurchaseOrderLine{},
		items:     map[uuid.UUID]*models.Item{},
		suppliers: map[uuid.UUID]*models.Supplier{},
		requests:  map[uuid.UUID]*models.UnmanagedOrderRequest{},
		priceRows: map[[2]uuid.UUID]*models.ItemSupplier{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) error {
	copied := *order
	copied.Lines = nil
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeRepository) CreateLines(ctx context.Context, lines []models.PurchaseOrderLine) error {
	for i := range lines {
		copied := lines[i]
		f.lines[copied.ID] = &copied
	}
	return nil
}

func (f *fakeRepository) orderWithLines(id uuid.UUID) (*models.PurchaseOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.Lines = nil
	for _, line := range f.lines {
		if line.PurchaseOrderID == id {
			copied.Lines = append(copied.Lines, *line)
		}
	}
	return &copied, nil
}

func (f *fakeRepository) FindOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	return f.orderWithLines(id)
}

func (f *fakeRepository) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	return f.orderWithLines(id)
}

func (f *fakeRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]models.PurchaseOrder, error) {
	var found []models.PurchaseOrder
	for _, order := range f.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.SupplierID != nil && order.SupplierID != *filter.SupplierID {
			continue
		}
		found = append(found, *order)
	}
	return found, nil
}

func (f *fakeRepository) SaveOrder(ctx context.Context, order *models.PurchaseOrder) error {
	copied := *order
	copied.Lines = nil
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeRepository) FindLine(ctx context.Context, lineID uuid.UUID) (*models.PurchaseOrderLine, error) {
	line, ok := f.lines[lineID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *line
	return &copied, nil
}

func (f *fakeRepository) SaveLine(ctx context.Context, line *models.PurchaseOrderLine) error {
	copied := *line
	f.lines[line.ID] = &copied
	return nil
}

func (f *fakeRepository) FindItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	var found []models.Item
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			found = append(found, *item)
		}
	}
	return found, nil
}

func (f *fakeRepository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, ok := f.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return supplier, nil
}

func (f *fakeRepository) FindRequestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error) {
	var found []models.UnmanagedOrderRequest
	for _, id := range ids {
		if request, ok := f.requests[id]; ok {
			found = append(found, *request)
		}
	}
	return found, nil
}

func (f *fakeRepository) SaveRequest(ctx context.Context, request *models.UnmanagedOrderRequest) error {
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f *fakeRepository) FindPriceRow(ctx context.Context, itemID, supplierID uuid.UUID) (*models.ItemSupplier, error) {
	row, ok := f.priceRows[[2]uuid.UUID{itemID, supplierID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeRepository) SavePriceRow(ctx context.Context, row *models.ItemSupplier) error {
	copied := *row
	f.priceRows[[2]uuid.UUID{row.ItemID, row.SupplierID}] = &copied
	return nil
}

func (f *fakeRepository) CreatePriceHistory(ctx context.Context, entry *models.UnitPriceHistory) error {
	f.histories = append(f.histories, entry)
	return nil
}

func (f *fakeRepository) addSupplier() uuid.UUID {
	id := uuid.New()
	email := "orders@acme.test"
	f.suppliers[id] = &models.Supplier{ID: id, Name: "Acme", Email: &email, Active: true}
	return id
}

func (f *fakeRepository) addItem(sku string, defaultSupplier *uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.items[id] = &models.Item{
		ID:                   id,
		SKU:                  sku,
		Name:                 "item " + sku,
		Unit:                 "ea",
		ReorderPoint:         10,
		DefaultOrderQuantity: 5,
		DefaultSupplierID:    defaultSupplier,
		Active:               true,
	}
	return id
}

func (f *fakeRepository) addStagedRequest(supplierID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.requests[id] = &models.UnmanagedOrderRequest{
		ID:         id,
		Name:       "off-catalog part",
		Quantity:   decimal.NewFromInt(2),
		Status:     enums.RequestStatusPending,
		SupplierID: &supplierID,
	}
	return id
}

func newTestService(repo *fakeRepository) (Service, *fakeInventory, *fakeCandidateSource) {
	inv := &fakeInventory{}
	source := &fakeCandidateSource{}
	svc, err := NewService(repo, fakeTxRunner{}, inv, source, nil)
	if err != nil {
		panic(err)
	}
	return svc, inv, source
}

func TestCreateOrderConvertsRequestsAtomically(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	itemID := repo.addItem("A-1", &supplierID)
	requestID := repo.addStagedRequest(supplierID)
	svc, _, _ := newTestService(repo)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines: []CreateOrderLineInput{
			{ItemID: &itemID, Quantity: decimal.NewFromInt(5)},
			{RequestID: &requestID, Quantity: decimal.NewFromInt(2)},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != enums.PurchaseOrderStatusDraft {
		t.Fatalf("expected draft, got %s", order.Status)
	}
	if order.SupplierID != supplierID {
		t.Fatalf("wrong supplier: %s", order.SupplierID)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}

	request := repo.requests[requestID]
	if request.Status != enums.RequestStatusConverted {
		t.Fatalf("expected converted request, got %s", request.Status)
	}
	if request.ConvertedOrderID == nil || *request.ConvertedOrderID != order.ID {
		t.Fatal("request must reference the created order")
	}
	if request.ConvertedLineID == nil {
		t.Fatal("request must reference the created line")
	}
	if request.SupplierID != nil || request.StagedAt != nil {
		t.Fatal("conversion must clear staging")
	}
}

func TestCreateOrderStampsDepartment(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	itemID := repo.addItem("A-1", &supplierID)
	svc, _, _ := newTestService(repo)

	department := "facilities"
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Department: &department,
		Lines:      []CreateOrderLineInput{{ItemID: &itemID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Department == nil || *order.Department != department {
		t.Fatalf("department not stamped: %v", order.Department)
	}
}

func TestCreateOrderRejectsMixedSuppliers(t *testing.T) {
	repo := newFakeRepository()
	first := repo.addSupplier()
	second := repo.addSupplier()
	itemID := repo.addItem("A-1", &first)
	requestID := repo.addStagedRequest(second)
	svc, _, _ := newTestService(repo)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines: []CreateOrderLineInput{
			{ItemID: &itemID, Quantity: decimal.NewFromInt(1)},
			{RequestID: &requestID, Quantity: decimal.NewFromInt(1)},
		},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.orders) != 0 {
		t.Fatal("no order may be created on mixed suppliers")
	}
}

func TestCreateOrderStaleRequestConflicts(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	requestID := repo.addStagedRequest(supplierID)
	repo.requests[requestID].Status = enums.RequestStatusConverted
	svc, _, _ := newTestService(repo)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines: []CreateOrderLineInput{{RequestID: &requestID, Quantity: decimal.NewFromInt(1)}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateOrderUnstagedRequestConflicts(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	requestID := repo.addStagedRequest(supplierID)
	repo.requests[requestID].SupplierID = nil
	svc, _, _ := newTestService(repo)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines: []CreateOrderLineInput{{RequestID: &requestID, Quantity: decimal.NewFromInt(1)}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateOrderResolvesPriceFromPriceList(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	itemID := repo.addItem("A-1", &supplierID)
	repo.priceRows[[2]uuid.UUID{itemID, supplierID}] = &models.ItemSupplier{
		ID:         uuid.New(),
		ItemID:     itemID,
		SupplierID: supplierID,
		UnitPrice:  decimal.NewNullDecimal(decimal.RequireFromString("3.75")),
	}
	svc, _, _ := newTestService(repo)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines: []CreateOrderLineInput{{ItemID: &itemID, Quantity: decimal.NewFromInt(2)}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	line := order.Lines[0]
	if !line.UnitPrice.Valid || !line.UnitPrice.Decimal.Equal(decimal.RequireFromString("3.75")) {
		t.Fatalf("expected price from price list, got %+v", line.UnitPrice)
	}
}

func TestCreateOrderRequiresResolvableSupplier(t *testing.T) {
	repo := newFakeRepository()
	itemID := repo.addItem("A-1", nil)
	svc, _, _ := newTestService(repo)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines: []CreateOrderLineInput{{ItemID: &itemID, Quantity: decimal.NewFromInt(1)}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderLineShapeValidation(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	itemID := repo.addItem("A-1", &supplierID)
	requestID := repo.addStagedRequest(supplierID)
	svc, _, _ := newTestService(repo)

	cases := []CreateOrderInput{
		{},
		{Lines: []CreateOrderLineInput{{Quantity: decimal.NewFromInt(1)}}},
		{Lines: []CreateOrderLineInput{{ItemID: &itemID, RequestID: &requestID, Quantity: decimal.NewFromInt(1)}}},
		{Lines: []CreateOrderLineInput{{ItemID: &itemID, Quantity: decimal.Zero}}},
	}
	for i, input := range cases {
		if _, err := svc.CreateOrder(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreateBulkFromLowStockGroupsBySupplier(t *testing.T) {
	repo := newFakeRepository()
	firstSupplier := repo.addSupplier()
	secondSupplier := repo.addSupplier()
	firstItem := repo.addItem("A-1", &firstSupplier)
	secondItem := repo.addItem("B-2", &secondSupplier)
	requestID := repo.addStagedRequest(firstSupplier)
	svc, _, source := newTestService(repo)

	qty := decimal.NewFromInt(5)
	source.list = []candidates.Candidate{
		{Kind: enums.LineKindManaged, ItemID: &firstItem, SupplierID: &firstSupplier, SuggestedQuantity: qty},
		{Kind: enums.LineKindManaged, ItemID: &secondItem, SupplierID: &secondSupplier, SuggestedQuantity: qty},
		{Kind: enums.LineKindUnmanaged, RequestID: &requestID, SupplierID: &firstSupplier, SuggestedQuantity: decimal.NewFromInt(2)},
		{Kind: enums.LineKindManaged, ItemID: &firstItem, SuggestedQuantity: qty},
	}

	result, err := svc.CreateBulkFromLowStock(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	if len(result.OrderIDs) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.OrderIDs))
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped candidate, got %d", result.Skipped)
	}

	perSupplier := map[uuid.UUID]int{}
	for _, order := range repo.orders {
		perSupplier[order.SupplierID]++
	}
	if perSupplier[firstSupplier] != 1 || perSupplier[secondSupplier] != 1 {
		t.Fatalf("expected one order per supplier, got %v", perSupplier)
	}
}
