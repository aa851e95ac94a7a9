package staging

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeRepository struct {
	requests  map[uuid.UUID]*models.UnmanagedOrderRequest
	suppliers map[uuid.UUID]*models.Supplier
	saves     int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		requests:  map[uuid.UUID]*models.UnmanagedOrderRequest{},
		suppliers: map[uuid.UUID]*models.Supplier{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindRequestsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UnmanagedOrderRequest, error) {
	var found []models.UnmanagedOrderRequest
	for _, id := range ids {
		if request, ok := f.requests[id]; ok {
			found = append(found, *request)
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

func (f *fakeRepository) SaveRequest(ctx context.Context, request *models.UnmanagedOrderRequest) error {
	f.requests[request.ID] = request
	f.saves++
	return nil
}

func (f *fakeRepository) addSupplier() uuid.UUID {
	id := uuid.New()
	f.suppliers[id] = &models.Supplier{ID: id, Name: "Acme"}
	return id
}

func (f *fakeRepository) addPendingRequest() uuid.UUID {
	id := uuid.New()
	f.requests[id] = &models.UnmanagedOrderRequest{
		ID:       id,
		Name:     "thing",
		Quantity: decimal.NewFromInt(1),
		Status:   enums.RequestStatusPending,
	}
	return id
}

func TestStageBindsSupplierAndTimestamp(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	first := repo.addPendingRequest()
	second := repo.addPendingRequest()

	svc, err := NewService(repo, fakeTxRunner{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	price := decimal.RequireFromString("4.20")
	count, err := svc.Stage(context.Background(), StageInput{
		RequestIDs: []uuid.UUID{first, second, first},
		SupplierID: supplierID,
		UnitPrice:  &price,
	})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 staged, got %d", count)
	}
	for _, id := range []uuid.UUID{first, second} {
		request := repo.requests[id]
		if request.SupplierID == nil || *request.SupplierID != supplierID {
			t.Fatalf("request %s missing staged supplier", id)
		}
		if request.StagedAt == nil {
			t.Fatalf("request %s missing staged_at", id)
		}
		if !request.UnitPrice.Valid || !request.UnitPrice.Decimal.Equal(price) {
			t.Fatalf("request %s missing staged price", id)
		}
	}
}

func TestStageIsAllOrNothing(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	pending := repo.addPendingRequest()

	svc, _ := NewService(repo, fakeTxRunner{})

	_, err := svc.Stage(context.Background(), StageInput{
		RequestIDs: []uuid.UUID{pending, uuid.New()},
		SupplierID: supplierID,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected zero mutations, got %d saves", repo.saves)
	}
	if repo.requests[pending].SupplierID != nil {
		t.Fatal("pending request must stay unstaged")
	}
}

func TestStageRejectsNonPending(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	converted := repo.addPendingRequest()
	repo.requests[converted].Status = enums.RequestStatusConverted

	svc, _ := NewService(repo, fakeTxRunner{})
	_, err := svc.Stage(context.Background(), StageInput{
		RequestIDs: []uuid.UUID{converted},
		SupplierID: supplierID,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageUnknownSupplier(t *testing.T) {
	repo := newFakeRepository()
	pending := repo.addPendingRequest()

	svc, _ := NewService(repo, fakeTxRunner{})
	_, err := svc.Stage(context.Background(), StageInput{
		RequestIDs: []uuid.UUID{pending},
		SupplierID: uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRestageOverwrites(t *testing.T) {
	repo := newFakeRepository()
	firstSupplier := repo.addSupplier()
	secondSupplier := repo.addSupplier()
	pending := repo.addPendingRequest()

	svc, _ := NewService(repo, fakeTxRunner{})
	if _, err := svc.Stage(context.Background(), StageInput{RequestIDs: []uuid.UUID{pending}, SupplierID: firstSupplier}); err != nil {
		t.Fatalf("first stage: %v", err)
	}
	if _, err := svc.Stage(context.Background(), StageInput{RequestIDs: []uuid.UUID{pending}, SupplierID: secondSupplier}); err != nil {
		t.Fatalf("second stage: %v", err)
	}
	if *repo.requests[pending].SupplierID != secondSupplier {
		t.Fatal("re-stage should overwrite the staged supplier")
	}
}

func TestUnstageClearsFields(t *testing.T) {
	repo := newFakeRepository()
	supplierID := repo.addSupplier()
	pending := repo.addPendingRequest()

	svc, _ := NewService(repo, fakeTxRunner{})
	price := decimal.RequireFromString("1.00")
	if _, err := svc.Stage(context.Background(), StageInput{RequestIDs: []uuid.UUID{pending}, SupplierID: supplierID, UnitPrice: &price}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	count, err := svc.Unstage(context.Background(), []uuid.UUID{pending})
	if err != nil {
		t.Fatalf("unstage: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 cleared, got %d", count)
	}
	request := repo.requests[pending]
	if request.SupplierID != nil || request.StagedAt != nil || request.UnitPrice.Valid {
		t.Fatalf("expected staging cleared, got %+v", request)
	}
}
