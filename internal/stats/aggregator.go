// Package stats owns the process-lifetime resolution counters and the
// durable rolling timing log. Counters are in-memory only and reset at
// every local midnight; the timing log survives resets.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"

	"linktrace/internal/domain"
)

type regionCounters struct {
	success atomic.Int64
	failure atomic.Int64
}

// Aggregator accumulates success/failure counts per region plus a ledger of
// failed URLs. Increments are atomic; only the ledger takes a lock. Owned
// explicitly by the app rather than living as a package singleton so tests
// can run isolated instances and drive resets synchronously.
type Aggregator struct {
	success   atomic.Int64
	failure   atomic.Int64
	perRegion *xsync.Map[string, *regionCounters]

	mu         sync.Mutex
	failedURLs []domain.FailedURL

	timing *TimingLog
}

func New(timingLogPath string) *Aggregator {
	return &Aggregator{
		perRegion: xsync.NewMap[string, *regionCounters](),
		timing:    NewTimingLog(timingLogPath),
	}
}

// Record counts one resolution attempt for region. Failures additionally
// land in the failed-URL ledger, which grows unbounded until the next
// scheduled reset.
func (a *Aggregator) Record(region, url string, outcome domain.ResolutionOutcome) {
	counters, _ := a.perRegion.LoadOrStore(region, &regionCounters{})

	if outcome.Succeeded() {
		a.success.Add(1)
		counters.success.Add(1)
		return
	}

	a.failure.Add(1)
	counters.failure.Add(1)

	reason := outcome.Error
	if reason == "" {
		reason = "no final url"
	}

	a.mu.Lock()
	a.failedURLs = append(a.failedURLs, domain.FailedURL{URL: url, Region: region, Reason: reason})
	a.mu.Unlock()
}

// RecordTiming appends one sample to the durable timing log, dated by the
// local calendar day of now.
func (a *Aggregator) RecordTiming(now time.Time, url string, elapsedMillis int64) error {
	return a.timing.Append(now, url, elapsedMillis)
}

// QueryTimings returns timing samples, optionally bounded inclusively by
// YYYY-MM-DD start/end dates.
func (a *Aggregator) QueryTimings(start, end string) ([]domain.TimingSample, error) {
	return a.timing.Query(start, end)
}

// Snapshot returns a read-only copy of the in-memory counters.
func (a *Aggregator) Snapshot() domain.ResolutionStats {
	perRegion := make(map[string]domain.RegionStat)
	a.perRegion.Range(func(region string, counters *regionCounters) bool {
		perRegion[region] = domain.RegionStat{
			SuccessCount: counters.success.Load(),
			FailureCount: counters.failure.Load(),
		}
		return true
	})

	a.mu.Lock()
	failed := make([]domain.FailedURL, len(a.failedURLs))
	copy(failed, a.failedURLs)
	a.mu.Unlock()

	return domain.ResolutionStats{
		SuccessCount: a.success.Load(),
		FailureCount: a.failure.Load(),
		PerRegion:    perRegion,
		FailedURLs:   failed,
	}
}

// Reset zeroes every in-memory counter and the failed-URL ledger. The
// durable timing log is untouched.
func (a *Aggregator) Reset() {
	a.success.Store(0)
	a.failure.Store(0)
	a.perRegion.Clear()

	a.mu.Lock()
	a.failedURLs = nil
	a.mu.Unlock()

	log.Info("Resolution stats reset")
}

// StartDailyReset schedules Reset at every local midnight and keeps it
// rescheduled for the process lifetime. There is no teardown; process exit
// ends it.
func (a *Aggregator) StartDailyReset() *cron.Cron {
	c := cron.New()
	if _, err := c.AddFunc("0 0 * * *", a.Reset); err != nil {
		log.Error("schedule daily stats reset", "error", err)
		return c
	}
	c.Start()
	return c
}
