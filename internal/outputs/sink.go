// Package outputs delivers the named results of a run to downstream automation.
//
// A Sink is an append-only key=value collaborator. The file sinks write the
// GitHub Actions command-file format, the NATS sink publishes a single event
// per run, and Multi fans out to several sinks.
package outputs

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// Output keys emitted by the pipeline.
const (
	KeyCollectedPath = "collected_path"
	KeyArtifactPath  = "artifact_path"
	KeyArtifactName  = "artifact_name"
	KeyTagName       = "tag_name"
)

// Sink accepts named outputs.
type Sink interface {
	Set(key, value string) error
}

// Flusher is implemented by sinks that buffer outputs until the run ends.
type Flusher interface {
	Flush() error
}

// Multi fans out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Set(key, value string) error {
	var errs []error
	for _, s := range m {
		if err := s.Set(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every member that buffers.
func (m Multi) Flush() error {
	var errs []error
	for _, s := range m {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Flush flushes s if it buffers.
func Flush(s Sink) error {
	if f, ok := s.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Log writes outputs to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Set(key, value string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Output", slog.String("key", key), slog.String("value", value))
	return nil
}

// Memory keeps outputs in memory.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	order  []string
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, seen := m.values[key]; !seen {
		m.order = append(m.order, key)
	}
	m.values[key] = value
	return nil
}

// Get returns the last value set for key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in first-set order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Snapshot copies the current values.
func (m *Memory) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
