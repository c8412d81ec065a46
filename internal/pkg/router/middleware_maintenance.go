package router

import (
	"net/http"
	"strconv"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareMaintenance answers 503 for every route when app.maintenance.enabled
// is set, or only for the routes in app.maintenance.endpoints. Values are read
// per request so a config reload takes effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !underMaintenance(cfg, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if secs := cfg.GetInt("app.maintenance.retry_after_seconds"); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			writeJSON(w, failure("service is under maintenance"), http.StatusServiceUnavailable)
		})
	}
}

func underMaintenance(cfg config.Config, route string) bool {
	if route == "/health" {
		return false
	}
	return cfg.GetBool("app.maintenance.enabled") || lo.Contains(cfg.GetArray("app.maintenance.endpoints"), route)
}
