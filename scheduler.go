package swr

import (
	"context"
	"time"
)

// guardedRevalidate revalidates unless the host is hidden or offline.
//
// Interval ticks and focus/visibility events go through this guard, manual
// Revalidate does not.
func (s *Subscription) guardedRevalidate() {
	e := s.engine

	if e.env.Hidden() || e.env.Offline() {
		ctx := context.Background()

		e.log.Debug(ctx, "revalidation suppressed by visibility/connectivity guard",
			"name", e.config.Name,
			"key", s.Key())
		e.stat.Add(ctx, MetricSkip, 1, "name", e.config.Name)

		return
	}

	_ = s.Revalidate()
}

// tick drives interval revalidation until the subscription is closed.
// Guarded-out ticks are dropped, not accumulated.
func (s *Subscription) tick(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.guardedRevalidate()
		case <-s.stopTick:
			return
		}
	}
}
