// Package notify delivers order events to connected staff screens and to
// external consumers. Delivery is best effort: no acknowledgement, no retry.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-pizzeria-management/metrics"
	"go-pizzeria-management/models"
)

// Broadcaster publishes events without ever reporting failure to the caller.
type Broadcaster interface {
	Publish(ctx context.Context, event models.Event)
}

// Sink is one delivery target behind a Fanout.
type Sink interface {
	Name() string
	Send(ctx context.Context, event models.Event) error
}

// NewEvent stamps an event about order with a fresh id.
func NewEvent(kind models.EventType, group string, order *models.Order, payload interface{}) models.Event {
	return models.Event{
		ID:          uuid.NewString(),
		Type:        kind,
		Group:       group,
		OrderID:     order.ID.Hex(),
		OrderNumber: order.Number,
		Status:      order.Status,
		Payload:     payload,
		Timestamp:   time.Now().UTC(),
	}
}

const defaultSendTimeout = 5 * time.Second

// Fanout hands every event to each sink on its own goroutine.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	log     *logrus.Logger
	wg      sync.WaitGroup
}

func NewFanout(log *logrus.Logger, timeout time.Duration, sinks ...Sink) *Fanout {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Fanout{sinks: sinks, timeout: timeout, log: log}
}

func (f *Fanout) Add(sink Sink) {
	f.sinks = append(f.sinks, sink)
}

func (f *Fanout) Publish(ctx context.Context, event models.Event) {
	// the triggering request may finish before the sinks do
	base := context.WithoutCancel(ctx)
	for _, sink := range f.sinks {
		f.wg.Add(1)
		go func(sink Sink) {
			defer f.wg.Done()
			sendCtx, cancel := context.WithTimeout(base, f.timeout)
			defer cancel()
			if err := sink.Send(sendCtx, event); err != nil {
				metrics.PublishFailed(sink.Name())
				f.log.WithFields(logrus.Fields{
					"sink":     sink.Name(),
					"event":    event.Type,
					"order_id": event.OrderID,
				}).WithError(err).Warn("event publish failed")
			}
		}(sink)
	}
}

// Wait blocks until every in-flight send has returned.
func (f *Fanout) Wait() {
	f.wg.Wait()
}
