package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizusaki/procureflow-backend/api/middleware"
	"github.com/mizusaki/procureflow-backend/api/responses"
	"github.com/mizusaki/procureflow-backend/api/validators"
	"github.com/mizusaki/procureflow-backend/internal/requests"
	"github.com/mizusaki/procureflow-backend/internal/staging"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

type createRequestPayload struct {
	Name       string          `json:"name" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"required"`
	Unit       *string         `json:"unit"`
	Department *string         `json:"department"`
	Note       *string         `json:"note"`
}

type rejectRequestPayload struct {
	Reason string `json:"reason" validate:"required"`
}

type stagePayload struct {
	RequestIDs []uuid.UUID      `json:"request_ids" validate:"required,min=1"`
	SupplierID uuid.UUID        `json:"supplier_id" validate:"required"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
}

type unstagePayload struct {
	RequestIDs []uuid.UUID `json:"request_ids" validate:"required,min=1"`
}

// RequestCreate files a new off-catalog purchase request.
func RequestCreate(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
			return
		}

		var body createRequestPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.Create(ctx, requests.CreateRequestInput{
			Name:        body.Name,
			Quantity:    body.Quantity,
			Unit:        body.Unit,
			Department:  body.Department,
			RequestedBy: middleware.ActorFromContext(ctx),
			Note:        body.Note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// RequestList filters requests by status, department and staging.
func RequestList(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
			return
		}

		filter := requests.ListFilter{
			Department: validators.QueryString(r, "department"),
		}
		if raw := validators.QueryString(r, "status"); raw != nil {
			status, err := enums.ParseRequestStatus(*raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		stagedOnly, err := validators.QueryBool(r, "staged")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter.StagedOnly = stagedOnly

		found, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// RequestGet returns a single request.
func RequestGet(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		found, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// RequestReject marks a pending request as rejected with a reason.
func RequestReject(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body rejectRequestPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rejected, err := svc.Reject(ctx, id, body.Reason, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rejected)
	}
}

// RequestStage binds pending requests to a supplier.
func RequestStage(svc staging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staging service unavailable"))
			return
		}

		var body stagePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		staged, err := svc.Stage(ctx, staging.StageInput{
			RequestIDs: body.RequestIDs,
			SupplierID: body.SupplierID,
			UnitPrice:  body.UnitPrice,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"staged": staged})
	}
}

// RequestUnstage clears staging from the given requests.
func RequestUnstage(svc staging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staging service unavailable"))
			return
		}

		var body unstagePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		unstaged, err := svc.Unstage(ctx, body.RequestIDs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"unstaged": unstaged})
	}
}
