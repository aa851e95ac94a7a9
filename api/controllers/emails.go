package controllers

import (
	"net/http"

	"github.com/mizusaki/procureflow-backend/api/middleware"
	"github.com/mizusaki/procureflow-backend/api/responses"
	"github.com/mizusaki/procureflow-backend/api/validators"
	"github.com/mizusaki/procureflow-backend/internal/mailer"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

// EmailPreview composes the outgoing message without sending it.
func EmailPreview(svc mailer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mailer service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		preview, err := svc.Preview(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

// EmailSend dispatches the order document to the supplier.
func EmailSend(svc mailer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mailer service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entry, err := svc.Send(ctx, id, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// EmailHistory lists dispatch attempts for an order, newest first.
func EmailHistory(svc mailer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mailer service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logs, err := svc.History(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}
