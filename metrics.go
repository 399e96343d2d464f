package swr

// Metric names reported to stats tracker.
const (
	// MetricHit is a counter of store reads that found an entry.
	MetricHit = "swr_hit"

	// MetricMiss is a counter of store reads that found nothing.
	MetricMiss = "swr_miss"

	// MetricWrite is a counter of store writes.
	MetricWrite = "swr_write"

	// MetricFetch is a counter of started upstream fetches.
	MetricFetch = "swr_fetch"

	// MetricDedup is a counter of fetches reused from the deduplication window.
	MetricDedup = "swr_dedup"

	// MetricFailed is a counter of failed upstream fetches.
	MetricFailed = "swr_failed"

	// MetricSkip is a counter of revalidation triggers suppressed by the
	// visibility/connectivity guard.
	MetricSkip = "swr_skip"

	// MetricMutate is a counter of direct writes via Mutate.
	MetricMutate = "swr_mutate"
)
