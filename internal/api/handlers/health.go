package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rohits-web03/sharegate/internal/utils"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Health reports OK when every check passes.
func Health(checks map[string]Check, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn().Err(err).Str("check", name).Msg("health check failed")
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			utils.JSONResponse(w, http.StatusServiceUnavailable, utils.Payload{
				Success: false,
				Message: "Unhealthy",
				Data:    failed,
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}
