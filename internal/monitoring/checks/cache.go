package checks

import (
	"context"
	"time"

	"github.com/charlesng35/authcore/internal/monitoring"
)

// Pinger is the part of a cache store the probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache returns a probe for the session cache. The cache is optional, so an absent
// store reports up and a failing one reports degraded rather than down.
func Cache(store Pinger, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "cache disabled"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultProbeTimeout))
		defer cancel()

		if err := store.Ping(probeCtx); err != nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  err.Error(),
				Duration: time.Since(start),
			}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
	})
}
