// Package nightly applies the nightly inventory update, on demand or on a
// fixed wall-clock interval.
package nightly

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/model"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

// Notifier receives the result of every successful advance.
type Notifier interface {
	Broadcast(msg model.WebSocketMessage)
}

// Updater advances the inventory and fans the result out to metrics, logs
// and an optional Notifier.
type Updater struct {
	store    store.Store
	notifier Notifier
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewUpdater creates an Updater. notifier may be nil.
func NewUpdater(s store.Store, notifier Notifier, logger *zap.Logger) *Updater {
	return &Updater{
		store:    s,
		notifier: notifier,
		logger:   logger,
	}
}

// Advance applies days nightly updates to the whole inventory.
func (u *Updater) Advance(ctx context.Context, days int) (*model.AdvanceResult, error) {
	result, err := u.store.Advance(ctx, days)
	if err != nil {
		advanceFailuresTotal.Inc()
		return nil, fmt.Errorf("advancing inventory: %w", err)
	}

	recordAdvance(result)

	u.logger.Info("inventory advanced",
		zap.Int("day", result.Day),
		zap.Int("days", result.Days),
		zap.Int("items", len(result.Items)),
	)

	if u.notifier != nil {
		u.notifier.Broadcast(model.NewDayAdvancedMessage(result))
	}

	return result, nil
}

// Start advances one day every interval until Stop is called. A
// non-positive interval or a second call while running does nothing.
func (u *Updater) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.done = make(chan struct{})

	u.logger.Info("nightly scheduler started", zap.Duration("interval", interval))

	go u.run(ctx, interval, u.done)
}

// run is the scheduler loop.
func (u *Updater) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := u.Advance(ctx, 1); err != nil {
				u.logger.Error("scheduled advance failed", zap.Error(err))
			}
		}
	}
}

// Stop halts the scheduler and waits for an in-flight advance to finish.
func (u *Updater) Stop() {
	u.mu.Lock()
	cancel, done := u.cancel, u.done
	u.cancel, u.done = nil, nil
	u.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	u.logger.Info("nightly scheduler stopped")
}

// Running reports whether the scheduler loop is active.
func (u *Updater) Running() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cancel != nil
}
