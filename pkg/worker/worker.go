// Package worker coordinates scan passes: one scan at a time, a take-once
// slot for the last report, and an optional clock-based schedule.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/covers"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/scanner"
	"github.com/uptrace/bun"
)

type Worker struct {
	config  *config.Config
	log     logger.Logger
	scanner *scanner.Scanner

	scanning atomic.Bool

	mu         sync.Mutex
	lastResult *scanner.Stats

	shutdown      chan struct{}
	doneScheduler chan struct{}
}

func New(cfg *config.Config, db *bun.DB, coverStore *covers.Store) *Worker {
	return &Worker{
		config:        cfg,
		log:           logger.New(),
		scanner:       scanner.New(cfg, db, coverStore),
		shutdown:      make(chan struct{}),
		doneScheduler: make(chan struct{}),
	}
}

// TriggerScan starts a scan pass in the background. A second trigger while
// one is running is rejected, never queued.
func (w *Worker) TriggerScan() error {
	if !w.scanning.CompareAndSwap(false, true) {
		return errcodes.ScanInProgress()
	}
	go w.runScan()
	return nil
}

// RunScanOnce runs a scan pass synchronously, holding the same lock a
// triggered scan would.
func (w *Worker) RunScanOnce(ctx context.Context) (*scanner.Stats, error) {
	if !w.scanning.CompareAndSwap(false, true) {
		return nil, errcodes.ScanInProgress()
	}
	defer w.scanning.Store(false)

	stats, err := w.scanner.Run(ctx)
	w.storeResult(stats)
	return stats, err
}

func (w *Worker) runScan() {
	defer w.scanning.Store(false)

	log := w.log
	if id, err := uuid.NewRandom(); err == nil {
		log = w.log.ID(id.String())
	}
	ctx := log.WithContext(context.Background())

	stats, err := w.scanner.Run(ctx)
	if err != nil {
		log.Err(err).Error("scan error")
	}
	// A failed pass still leaves a consumable report carrying its error.
	w.storeResult(stats)
}

func (w *Worker) storeResult(stats *scanner.Stats) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// An unconsumed older report is replaced; only the latest pass matters.
	w.lastResult = stats
}

// TakeLastResult removes and returns the last unconsumed scan report.
func (w *Worker) TakeLastResult() (*scanner.Stats, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	stats := w.lastResult
	w.lastResult = nil
	return stats, stats != nil
}

// Scanning reports whether a pass is currently running.
func (w *Worker) Scanning() bool {
	return w.scanning.Load()
}

func (w *Worker) Start() {
	go w.runScheduler()
}

func (w *Worker) Shutdown() {
	close(w.shutdown)
	<-w.doneScheduler
}
