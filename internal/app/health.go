package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type healthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (healthResponse) Message() string { return "Service is healthy" }

type pinger interface {
	Ping(ctx context.Context) error
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func (a *App) health(r *router.Request) (any, error) {
	return checkHealth(r.Context(), a.dbConn, pingerFunc(func(ctx context.Context) error {
		return a.cacheConn.Ping(ctx).Err()
	}))
}

func checkHealth(ctx context.Context, database, cache pinger) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := healthResponse{Database: "up", Redis: "up"}
	healthy := true

	if err := database.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health: database ping failed", "error", err)
		resp.Database = "down"
		healthy = false
	}
	if err := cache.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health: redis ping failed", "error", err)
		resp.Redis = "down"
		healthy = false
	}

	if !healthy {
		return nil, goerror.NewBusiness("Service is unhealthy", goerror.CodeUnavailable,
			goerror.WithDetail("database", resp.Database),
			goerror.WithDetail("redis", resp.Redis),
		)
	}

	return resp, nil
}
