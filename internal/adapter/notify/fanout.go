package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

type sink struct {
	name   string
	sender Sender
}

// Fanout dispatches notifications to all sinks asynchronously.
type Fanout struct {
	sinks   []sink
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

// NewFanout creates a fanout whose per-sink delivery is bounded by timeout.
func NewFanout(timeout time.Duration, logger *slog.Logger) *Fanout {
	return &Fanout{
		timeout: timeout,
		log:     logger.With("adapter", "notify"),
	}
}

// Add registers a sink. Not safe to call after the first Notify.
func (f *Fanout) Add(name string, s Sender) {
	f.sinks = append(f.sinks, sink{name: name, sender: s})
}

// Sinks returns the names of the registered sinks.
func (f *Fanout) Sinks() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.name
	}
	return names
}

// Notify starts delivery and returns immediately. Delivery outlives the
// caller's context cancellation but not the fanout timeout.
func (f *Fanout) Notify(ctx context.Context, n domain.Notification) {
	base := context.WithoutCancel(ctx)
	for _, s := range f.sinks {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()

			sendCtx, cancel := context.WithTimeout(base, f.timeout)
			defer cancel()

			if err := s.sender.Send(sendCtx, n); err != nil {
				f.log.WarnContext(sendCtx, "notification delivery failed",
					slog.String("sink", s.name),
					slog.String("kind", string(n.Kind)),
					slog.String("recipient_id", n.RecipientID.String()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
}

// Close waits for in-flight deliveries and closes sinks that hold resources.
func (f *Fanout) Close() error {
	f.wg.Wait()
	var firstErr error
	for _, s := range f.sinks {
		if c, ok := s.sender.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
