package router

import (
	"context"
	"time"

	"github.com/heptiolabs/healthcheck"

	"github.com/marcella-castro/check-pesquisa-mj/internal/snapshot"
)

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealth reports ready once a snapshot is loaded and, when a store is
// given, while it answers pings.
func NewHealth(snaps *snapshot.Service, store Pinger) healthcheck.Handler {
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	health.AddReadinessCheck("snapshot-loaded", func() error {
		_, err := snaps.Current()
		return err
	})
	if store != nil {
		health.AddReadinessCheck("oxidb", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(ctx)
		})
	}
	return health
}
