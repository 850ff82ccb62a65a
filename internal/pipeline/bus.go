package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// AllEvents subscribes a handler to every event name.
const AllEvents = "*"

// Handler processes an Event; return error to signal failure.
type Handler func(Event) error

// Bus delivers orchestrator events synchronously, in subscription order.
// Handler failures never abort a run; Publish joins them for the caller to log.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus { return &Bus{handlers: map[string][]Handler{}} }

// Subscribe registers h for the named event, or for every event with AllEvents.
func (b *Bus) Subscribe(name string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) Publish(e Event) error {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[e.Name()])+len(b.handlers[AllEvents]))
	hs = append(hs, b.handlers[e.Name()]...)
	hs = append(hs, b.handlers[AllEvents]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(e); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", e.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogEvents subscribes a handler that writes every event to logger at debug level.
func LogEvents(b *Bus, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	b.Subscribe(AllEvents, func(e Event) error {
		logger.Debug("Pipeline event", slog.String("event", e.Name()), slog.Any("payload", e))
		return nil
	})
}
