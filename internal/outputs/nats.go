package outputs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn the NATS sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	Flush() error
}

// Event is the message published once per run.
type Event struct {
	RunID     string            `json:"run_id"`
	Outputs   map[string]string `json:"outputs"`
	Timestamp time.Time         `json:"timestamp"`
}

// NATSSink buffers outputs and publishes them as one Event on Flush.
type NATSSink struct {
	pub     Publisher
	subject string
	runID   string
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]string
}

// NewNATSSink wraps an existing publisher.
func NewNATSSink(pub Publisher, subject, runID string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject, runID: runID, now: time.Now, pending: map[string]string{}}
}

// DialNATS connects to url and returns a sink plus a close function.
func DialNATS(url, subject, runID string) (*NATSSink, func(), error) {
	conn, err := nats.Connect(url, nats.Name("buildpipe"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS output sink connected", "url", url, "subject", subject)
	return NewNATSSink(conn, subject, runID), conn.Close, nil
}

func (s *NATSSink) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = value
	return nil
}

// Flush publishes buffered outputs. It is a no-op when nothing was set.
func (s *NATSSink) Flush() error {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil
	}
	ev := Event{RunID: s.runID, Outputs: s.pending, Timestamp: s.now().UTC()}
	s.pending = map[string]string{}
	s.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish outputs: %w", err)
	}
	if err := s.pub.Flush(); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	slog.Debug("Published outputs", "subject", s.subject, "keys", sortedKeys(ev.Outputs))
	return nil
}
