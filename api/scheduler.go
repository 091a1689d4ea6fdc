/*
scheduler.go - Automated ledger compaction

PURPOSE:
  Periodically folds ledgers older than the retention window into their
  compact summaries, the way the household app did on every start.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Compaction is idempotent: already compacted ledgers are skipped by
    the engine, so overlapping manual and scheduled runs are harmless

CONFIGURATION:
  - CheckInterval: How often to compact (default: 6 hours)
  - RetentionDays: Days of detail kept (default: 14)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewCompactionScheduler(svc, 14)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Compact endpoint (manual compaction)
  - daylog/summary.go: CompactOldLogsAsOf
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/household"
	"github.com/warp/quest-engine/logging"
)

// DefaultCompactionInterval is how often the scheduler compacts.
const DefaultCompactionInterval = 6 * time.Hour

// CompactionScheduler compacts old ledgers in the background.
type CompactionScheduler struct {
	Service       *household.Service
	CheckInterval time.Duration
	RetentionDays int
	Enabled       bool

	today  func() string
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCompactionScheduler creates a new scheduler.
func NewCompactionScheduler(svc *household.Service, retentionDays int) *CompactionScheduler {
	return &CompactionScheduler{
		Service:       svc,
		CheckInterval: DefaultCompactionInterval,
		RetentionDays: retentionDays,
		Enabled:       true,
		today:         generic.TodayString,
	}
}

// Start begins the scheduler.
func (cs *CompactionScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		logging.Info("compaction scheduler disabled")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)

	go cs.run(cs.ticker, cs.stop)

	logging.Info("compaction scheduler started", "interval", cs.CheckInterval, "retentionDays", cs.RetentionDays)
}

// Stop stops the scheduler and waits for a running pass to finish.
func (cs *CompactionScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		cs.ticker = nil
		logging.Info("compaction scheduler stopped")
	}
}

func (cs *CompactionScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cs.wg.Done()

	cs.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			cs.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow compacts immediately and returns how many ledgers were compacted.
func (cs *CompactionScheduler) RunNow(ctx context.Context) int {
	today := cs.today()
	n, err := cs.Service.CompactAll(ctx, cs.RetentionDays, today)
	if err != nil {
		logging.Error("compaction failed", "err", err, "asOf", today)
		return 0
	}
	LedgersCompacted.Add(float64(n))
	logging.Debug("compaction pass", "compacted", n, "asOf", today)
	return n
}

// NextRunTime returns when the next scheduled pass will occur.
func (cs *CompactionScheduler) NextRunTime() time.Time {
	return time.Now().Add(cs.CheckInterval)
}
