package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
)

// PathUUID parses a uuid path parameter.
func PathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter missing").WithDetails(map[string]any{"field": key})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "path parameter must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// QueryUUID parses an optional uuid query parameter. Absent returns nil.
func QueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "query parameter must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return &id, nil
}

// QueryString returns a trimmed optional query parameter. Absent
// returns nil.
func QueryString(r *http.Request, key string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	switch strings.ToLower(raw) {
	case "":
		return false, nil
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
}
