package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizusaki/procureflow-backend/api/middleware"
	"github.com/mizusaki/procureflow-backend/api/responses"
	"github.com/mizusaki/procureflow-backend/api/validators"
	"github.com/mizusaki/procureflow-backend/internal/orders"
	"github.com/mizusaki/procureflow-backend/pkg/enums"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

type orderLinePayload struct {
	ItemID     *uuid.UUID       `json:"item_id"`
	RequestID  *uuid.UUID       `json:"request_id"`
	Quantity   decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	SupplierID *uuid.UUID       `json:"supplier_id"`
	Note       *string          `json:"note"`
}

type createOrderPayload struct {
	SupplierID *uuid.UUID         `json:"supplier_id"`
	OrderDate  *time.Time         `json:"order_date"`
	Department *string            `json:"department"`
	Note       *string            `json:"note"`
	Lines      []orderLinePayload `json:"lines" validate:"required,min=1,dive"`
}

type transitionPayload struct {
	Status string `json:"status" validate:"required"`
}

type receiptLinePayload struct {
	LineID    uuid.UUID        `json:"line_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type receiptPayload struct {
	Lines []receiptLinePayload `json:"lines" validate:"required,min=1,dive"`
}

type replyDueDatePayload struct {
	Date time.Time `json:"date" validate:"required"`
}

// OrderCreate builds a draft purchase order from explicit lines.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body createOrderPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			SupplierID: body.SupplierID,
			OrderDate:  body.OrderDate,
			Department: body.Department,
			Note:       body.Note,
			CreatedBy:  middleware.ActorFromContext(ctx),
		}
		for _, line := range body.Lines {
			input.Lines = append(input.Lines, orders.CreateOrderLineInput{
				ItemID:     line.ItemID,
				RequestID:  line.RequestID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				SupplierID: line.SupplierID,
				Note:       line.Note,
			})
		}

		order, err := svc.CreateOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderCreateBulk creates one draft order per supplier from the
// current candidate list.
func OrderCreateBulk(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		result, err := svc.CreateBulkFromLowStock(ctx,
			validators.QueryString(r, "department"),
			middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderList filters orders by status and supplier.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var filter orders.OrderFilter
		if raw := validators.QueryString(r, "status"); raw != nil {
			status, err := enums.ParsePurchaseOrderStatus(*raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		supplierID, err := validators.QueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter.SupplierID = supplierID

		found, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// OrderGet returns one order with its lines.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderTransition applies an explicit lifecycle transition.
func OrderTransition(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body transitionPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		target, err := enums.ParsePurchaseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		order, err := svc.Transition(ctx, id, target, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderReceive records a partial or full delivery.
func OrderReceive(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body receiptPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.ReceiptInput{
			OrderID: id,
			Actor:   middleware.ActorFromContext(ctx),
		}
		for _, line := range body.Lines {
			input.Lines = append(input.Lines, orders.ReceiptLine{
				LineID:    line.LineID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		order, err := svc.Receive(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderSetReplyDueDate records the supplier's confirmed delivery date
// against the line's order.
func OrderSetReplyDueDate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		lineID, err := validators.PathUUID(r, "lineID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body replyDueDatePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.SetReplyDueDate(ctx, lineID, body.Date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
