package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mizusaki/procureflow-backend/api/responses"
	"github.com/mizusaki/procureflow-backend/pkg/config"
	pkgerrors "github.com/mizusaki/procureflow-backend/pkg/errors"
	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

const envHeader = "X-ProcureFlow-Env"

// Pinger is the health-check surface every dependency exposes.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency with a short deadline and reports
// the first failure.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks)
				responses.WriteError(ctx, logg, w, err)
				return
			}
			checks[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
