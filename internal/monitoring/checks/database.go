package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/monitoring"
)

const defaultProbeTimeout = 2 * time.Second

// Database returns a probe that pings the primary store.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		err := database.Ping(ctx, db, chooseTimeout(timeout, defaultProbeTimeout))
		return monitoring.ResultFromError(err, time.Since(start))
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
