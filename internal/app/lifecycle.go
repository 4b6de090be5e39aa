package app

import (
	"context"
	"time"
)

// AwaitSessionEnd polls every interval until the current session is over.
// It returns false if ctx ends or closed fires first.
func (c *Coordinator) AwaitSessionEnd(ctx context.Context, interval time.Duration, closed <-chan struct{}) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-closed:
			return false
		case <-ticker.C:
			if c.EndSessionIfOver() {
				return true
			}
		}
	}
}
