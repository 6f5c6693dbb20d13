package controllers

import (
	"net/http"

	"github.com/adee-tech/adee-backend/api/responses"
	"github.com/adee-tech/adee-backend/internal/stats"
	"github.com/adee-tech/adee-backend/pkg/logger"
)

// StatsOverview exposes the public marketplace counters.
func StatsOverview(svc *stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		overview, err := svc.Snapshot(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}
