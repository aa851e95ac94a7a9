package controllers

import (
	"net/http"

	"github.com/mizusaki/procureflow-backend/api/responses"
	"github.com/mizusaki/procureflow-backend/api/validators"
	"github.com/mizusaki/procureflow-backend/internal/documents"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

type documentResult struct {
	OrderID string `json:"order_id"`
	Path    string `json:"path"`
	Version int    `json:"version"`
	Reused  bool   `json:"reused"`
	Status  string `json:"status"`
}

// DocumentGenerate renders and stores the order document. Pass
// regenerate=true to force a new version.
func DocumentGenerate(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		regenerate, err := validators.QueryBool(r, "regenerate")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Generate(ctx, id, regenerate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, documentResult{
			OrderID: result.Order.ID.String(),
			Path:    result.Path,
			Version: result.Version,
			Reused:  result.Reused,
			Status:  result.Order.Status.String(),
		})
	}
}

// DocumentPreview streams the rendered document without storing it.
func DocumentPreview(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		body, err := svc.Preview(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
