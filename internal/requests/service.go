package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/db/models"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

// CreateRequestInput captures a new off-catalog purchase request.
type CreateRequestInput struct {
	Name        string
	Quantity    decimal.Decimal
	Unit        *string
	Department  *string
	RequestedBy *string
	Note        *string
}

// Service handles intake and triage of unmanaged order requests.
type Service interface {
	Create(ctx context.Context, input CreateRequestInput) (*models.UnmanagedOrderRequest, error)
	List(ctx context.Context, filter ListFilter) ([]models.UnmanagedOrderRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.UnmanagedOrderRequest, error)
	Reject(ctx context.Context, id uuid.UUID, reason string, actor *string) (*models.UnmanagedOrderRequest, error)
}

type service struct {
	repo Repository
}

// NewService wires the request intake service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateRequestInput) (*models.UnmanagedOrderRequest, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request name is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request quantity must be positive")
	}

	request := &models.UnmanagedOrderRequest{
		ID:                  uuid.New(),
		Name:                name,
		Quantity:            input.Quantity,
		Unit:                input.Unit,
		Status:              enums.RequestStatusPending,
		RequestedBy:         input.RequestedBy,
		RequestedDepartment: input.Department,
		Note:                input.Note,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating request")
	}
	return request, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.UnmanagedOrderRequest, error) {
	found, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing requests")
	}
	return found, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.UnmanagedOrderRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading request")
	}
	return request, nil
}

// Reject closes a pending request. Converted requests cannot be
// rejected; cancel the order instead.
func (s *service) Reject(ctx context.Context, id uuid.UUID, reason string, actor *string) (*models.UnmanagedOrderRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.RequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("request is %s, only pending requests can be rejected", request.Status))
	}

	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	request.Status = enums.RequestStatusRejected
	note := trimmed
	if actor != nil && *actor != "" {
		note = fmt.Sprintf("%s (rejected by %s)", trimmed, *actor)
	}
	request.Note = &note
	request.SupplierID = nil
	request.UnitPrice = decimal.NullDecimal{}
	request.StagedAt = nil

	if err := s.repo.Save(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rejecting request")
	}
	return request, nil
}
