package controllers

import (
	"net/http"

	"github.com/mizusaki/procureflow-backend/api/responses"
	"github.com/mizusaki/procureflow-backend/api/validators"
	"github.com/mizusaki/procureflow-backend/internal/candidates"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

// CandidateList returns the current order candidates: low-stock
// managed items followed by staged off-catalog requests.
func CandidateList(svc candidates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "candidates service unavailable"))
			return
		}

		list, err := svc.BuildCandidates(ctx, validators.QueryString(r, "department"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
