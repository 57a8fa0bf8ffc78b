// internal/app/system/workers/storemonitor.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is the part of docstore.Store the monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreMonitor is a background worker that pings the document store and
// logs when it becomes unreachable and when it recovers.
type StoreMonitor struct {
	store    Pinger
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once

	mu      sync.Mutex
	healthy bool
	since   time.Time
}

// NewStoreMonitor creates a store monitor.
//
// Parameters:
//   - store: the store to ping
//   - logger: zap logger for logging
//   - interval: how often to ping (e.g., 30 seconds)
//   - timeout: deadline for each ping (e.g., 2 seconds)
func NewStoreMonitor(store Pinger, logger *zap.Logger, interval, timeout time.Duration) *StoreMonitor {
	return &StoreMonitor{
		store:    store,
		log:      logger,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
		healthy:  true,
		since:    time.Now(),
	}
}

// Start begins the background ping loop.
func (w *StoreMonitor) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("store monitor started",
		zap.Duration("interval", w.interval),
		zap.Duration("timeout", w.timeout))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *StoreMonitor) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("store monitor stopped")
	})
}

// Healthy reports the result of the last ping and when it last changed.
func (w *StoreMonitor) Healthy() (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.healthy, w.since
}

func (w *StoreMonitor) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check pings once and records the result.
func (w *StoreMonitor) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.store.Ping(ctx)

	w.mu.Lock()
	was := w.healthy
	w.healthy = err == nil
	if was != w.healthy {
		w.since = time.Now()
	}
	w.mu.Unlock()

	switch {
	case was && err != nil:
		w.log.Error("document store unreachable", zap.Error(err))
	case !was && err == nil:
		w.log.Info("document store reachable again")
	}
}
