// Package jobs runs the background work scheduled alongside the API.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"go-pizzeria-management/models"
	"go-pizzeria-management/notify"
	"go-pizzeria-management/services"
)

type DelayedSource interface {
	Delayed(ctx context.Context, now time.Time) ([]services.DelayedOrder, error)
}

// LateOrderWatcher periodically looks for orders running past their expected
// preparation time and raises one order_delayed event per order.
type LateOrderWatcher struct {
	source   DelayedSource
	notifier notify.Broadcaster
	log      *logrus.Logger
	now      func() time.Time
	timeout  time.Duration

	mu       sync.Mutex
	notified map[string]struct{}
	cron     *cron.Cron
}

func NewLateOrderWatcher(source DelayedSource, notifier notify.Broadcaster, log *logrus.Logger) *LateOrderWatcher {
	return &LateOrderWatcher{
		source:   source,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		timeout:  30 * time.Second,
		notified: make(map[string]struct{}),
	}
}

// Start schedules scans on schedule, a standard cron expression or a descriptor
// such as "@every 1m".
func (w *LateOrderWatcher) Start(schedule string) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(w.log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(w.log)),
	))
	if _, err := c.AddFunc(schedule, w.run); err != nil {
		return fmt.Errorf("scheduling late order scan %q: %w", schedule, err)
	}
	w.cron = c
	c.Start()
	w.log.WithField("schedule", schedule).Info("late order watcher started")
	return nil
}

// Stop halts the schedule and waits for a running scan to finish.
func (w *LateOrderWatcher) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}

func (w *LateOrderWatcher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.Scan(ctx); err != nil {
		w.log.WithError(err).Error("late order scan failed")
	}
}

// Scan publishes events for newly delayed orders and returns how many it
// published.
func (w *LateOrderWatcher) Scan(ctx context.Context) (int, error) {
	delayed, err := w.source.Delayed(ctx, w.now())
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]struct{}, len(delayed))
	published := 0
	for i := range delayed {
		d := &delayed[i]
		id := d.Order.ID.Hex()
		current[id] = struct{}{}
		if _, seen := w.notified[id]; seen {
			continue
		}
		payload := map[string]int{
			"age_minutes":      d.AgeMinutes,
			"expected_minutes": d.ExpectedMinutes,
		}
		w.notifier.Publish(ctx, notify.NewEvent(models.EventOrderDelayed, "", &d.Order, payload))
		w.notifier.Publish(ctx, notify.NewEvent(models.EventOrderDelayed, models.GroupPreparation, &d.Order, payload))
		w.log.WithFields(logrus.Fields{
			"order_id": id,
			"number":   d.Order.Number,
			"age":      d.AgeMinutes,
			"expected": d.ExpectedMinutes,
		}).Warn("order is running late")
		published++
	}
	// orders that moved on are forgotten
	for id := range w.notified {
		if _, still := current[id]; !still {
			delete(w.notified, id)
		}
	}
	for id := range current {
		w.notified[id] = struct{}{}
	}
	return published, nil
}
