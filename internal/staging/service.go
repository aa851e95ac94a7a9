package staging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StageInput binds pending requests to a supplier ahead of conversion.
type StageInput struct {
	RequestIDs []uuid.UUID
	SupplierID uuid.UUID
	UnitPrice  *decimal.Decimal
}

// Service stages and unstages off-catalog requests. Staging is
// all-or-nothing: one invalid id leaves every request untouched.
type Service interface {
	Stage(ctx context.Context, input StageInput) (int, error)
	Unstage(ctx context.Context, requestIDs []uuid.UUID) (int, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires the staging service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("staging repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) Stage(ctx context.Context, input StageInput) (int, error) {
	ids := dedupe(input.RequestIDs)
	if len(ids) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one request id is required")
	}
	if input.SupplierID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if input.UnitPrice != nil && input.UnitPrice.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	staged := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindSupplier(ctx, input.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "supplier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier")
		}

		found, err := repo.FindRequestsByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading requests")
		}
		if len(found) != len(ids) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%d of %d requests not found", len(ids)-len(found), len(ids)))
		}
		for _, request := range found {
			if request.Status != enums.RequestStatusPending {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("request %s is %s, only pending requests can be staged", request.ID, request.Status))
			}
		}

		stagedAt := s.now().UTC()
		for i := range found {
			request := found[i]
			request.SupplierID = &input.SupplierID
			request.StagedAt = &stagedAt
			if input.UnitPrice != nil {
				request.UnitPrice = decimal.NewNullDecimal(*input.UnitPrice)
			}
			if err := repo.SaveRequest(ctx, &request); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "staging request")
			}
		}
		staged = len(found)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return staged, nil
}

func (s *service) Unstage(ctx context.Context, requestIDs []uuid.UUID) (int, error) {
	ids := dedupe(requestIDs)
	if len(ids) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one request id is required")
	}

	cleared := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindRequestsByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading requests")
		}
		if len(found) != len(ids) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%d of %d requests not found", len(ids)-len(found), len(ids)))
		}
		for _, request := range found {
			if request.Status != enums.RequestStatusPending {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("request %s is %s, only pending requests can be unstaged", request.ID, request.Status))
			}
		}

		for i := range found {
			request := found[i]
			request.SupplierID = nil
			request.UnitPrice = decimal.NullDecimal{}
			request.StagedAt = nil
			if err := repo.SaveRequest(ctx, &request); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unstaging request")
			}
		}
		cleared = len(found)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
