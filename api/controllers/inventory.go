package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizusaki/procureflow-backend/api/middleware"
	"github.com/mizusaki/procureflow-backend/api/responses"
	"github.com/mizusaki/procureflow-backend/api/validators"
	"github.com/mizusaki/procureflow-backend/internal/inventory"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

type movementPayload struct {
	ItemID   uuid.UUID       `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Reason   *string         `json:"reason"`
}

// InventoryIssue withdraws stock for internal consumption.
func InventoryIssue(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var body movementPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entry, err := svc.Issue(ctx, inventory.MovementInput{
			ItemID:   body.ItemID,
			Quantity: body.Quantity,
			Reason:   body.Reason,
			Actor:    middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// InventoryAdjust records a signed manual correction.
func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var body movementPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entry, err := svc.Adjust(ctx, inventory.MovementInput{
			ItemID:   body.ItemID,
			Quantity: body.Quantity,
			Reason:   body.Reason,
			Actor:    middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

// InventoryOnHand returns the current projected stock for an item.
func InventoryOnHand(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		onHand, err := svc.OnHand(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"item_id": id, "on_hand": onHand})
	}
}

// InventoryHistory lists ledger entries for an item, newest first.
func InventoryHistory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		history, err := svc.History(ctx, id, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
