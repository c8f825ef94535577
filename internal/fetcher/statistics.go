package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/smartfetch/internal/logger"
	"github.com/oshokin/smartfetch/internal/session"
)

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// FetchStatistics aggregates counters for one fetch run.
type FetchStatistics struct {
	// AttemptsMade counts every dispatched request attempt.
	AttemptsMade int64
	// ResponsesReceived counts attempts that delivered a response, whatever its status.
	ResponsesReceived int64
	// SuccessfulResponses counts responses with a status below 400.
	SuccessfulResponses int64
	// TransportFailures counts attempts that failed before a response arrived.
	TransportFailures int64
	// CacheHits counts fetches served from the body cache.
	CacheHits int64
	// EmptyResults counts fetches that exhausted every attempt.
	EmptyResults int64
	// TotalBytesFetched sums the body sizes of delivered responses.
	TotalBytesFetched int64
	// StartTime marks the beginning of the run.
	StartTime time.Time
	// EndTime marks the end of the run.
	EndTime time.Time
}

// MarkStart records the beginning of the run.
func (f *FetcherImpl) MarkStart() {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.StartTime = time.Now()
}

// MarkEnd records the end of the run.
func (f *FetcherImpl) MarkEnd() {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.EndTime = time.Now()
}

// incrementAttempt counts a dispatched request attempt.
func (f *FetcherImpl) incrementAttempt() {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.AttemptsMade++
}

// recordResponse counts a delivered response and its body size.
func (f *FetcherImpl) recordResponse(response *session.Response) {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.ResponsesReceived++
	f.stats.TotalBytesFetched += int64(len(response.Body))

	if response.Success {
		f.stats.SuccessfulResponses++
	}
}

// incrementFailure counts an attempt that failed at the transport level.
func (f *FetcherImpl) incrementFailure() {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.TransportFailures++
}

// incrementCacheHit counts a fetch served from the body cache.
func (f *FetcherImpl) incrementCacheHit() {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.CacheHits++
}

// incrementEmptyResult counts a fetch that exhausted every attempt.
func (f *FetcherImpl) incrementEmptyResult() {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	f.stats.EmptyResults++
}

// PrintFetchSummary prints a formatted summary of fetch statistics.
func (f *FetcherImpl) PrintFetchSummary(ctx context.Context) {
	f.statsMutex.Lock()
	defer f.statsMutex.Unlock()

	stats := f.stats

	// If nothing was attempted, don't print a summary.
	if stats.AttemptsMade == 0 && stats.CacheHits == 0 {
		return
	}

	wasInterrupted := ctx.Err() != nil

	logger.Info(ctx, "")
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")

	if wasInterrupted {
		logger.Info(ctx, "              FETCH SUMMARY (Interrupted)")
	} else {
		logger.Info(ctx, "                     FETCH SUMMARY")
	}

	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
	logger.Infof(ctx, "Attempts:         %d", stats.AttemptsMade)

	if stats.ResponsesReceived > 0 {
		logger.Infof(ctx, "  Responses:      %d", stats.ResponsesReceived)
	}

	if stats.SuccessfulResponses > 0 {
		logger.Infof(ctx, "  Successful:     %d", stats.SuccessfulResponses)
	}

	if stats.TransportFailures > 0 {
		logger.Infof(ctx, "  Failures:       %d", stats.TransportFailures)
	}

	if stats.CacheHits > 0 {
		logger.Infof(ctx, "Cache Hits:       %d", stats.CacheHits)
	}

	if stats.EmptyResults > 0 {
		logger.Infof(ctx, "Empty Results:    %d", stats.EmptyResults)
	}

	if stats.TotalBytesFetched > 0 {
		//nolint:gosec // TotalBytesFetched is always positive, no overflow risk.
		logger.Infof(ctx, "Data Fetched:     %s", humanize.Bytes(uint64(stats.TotalBytesFetched)))
	}

	if !stats.StartTime.IsZero() && !stats.EndTime.IsZero() {
		duration := stats.EndTime.Sub(stats.StartTime)
		if duration > 100*time.Millisecond {
			logger.Infof(ctx, "Duration:         %s", formatDuration(duration))
		}
	}

	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")

	if wasInterrupted {
		logger.Info(ctx, "")
		logger.Warn(ctx, "Fetch interrupted by user (CTRL+C).")
	}
}
