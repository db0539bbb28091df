// Package eventlog persists registry events as an append-only audit log
// with file rotation.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cainy/dockhand/internal/domain"
)

// Config holds the configuration for the event log writer.
type Config struct {
	// Path is the audit log file location.
	Path string
	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int
	// MaxBackups is the number of old log files to retain.
	MaxBackups int
	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int
}

// record is the JSON line written per event.
type record struct {
	Time       time.Time `json:"time"`
	Type       string    `json:"type"`
	EventID    string    `json:"event_id"`
	Action     string    `json:"action"`
	Repository string    `json:"repository,omitempty"`
	Digest     string    `json:"digest,omitempty"`
	Tag        string    `json:"tag,omitempty"`
	MediaType  string    `json:"media_type,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	SourceAddr string    `json:"source_addr,omitempty"`
}

// Writer appends one JSON line per registry event. It handles every
// event type.
type Writer struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
}

// New creates a new event log writer.
func New(config Config) (*Writer, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("event log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(config.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}

	return &Writer{
		logger: &lumberjack.Logger{
			Filename:   config.Path,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   true,
		},
	}, nil
}

// Handle writes the event as one JSON line.
func (w *Writer) Handle(event domain.RegistryEvent) error {
	line, err := json.Marshal(record{
		Time:       event.Timestamp,
		Type:       string(event.Type),
		EventID:    event.ID,
		Action:     string(event.Action),
		Repository: event.TargetRepository,
		Digest:     event.TargetDigest,
		Tag:        event.TargetTag,
		MediaType:  event.TargetMediaType.String(),
		Size:       event.TargetSize,
		Actor:      event.ActorName,
		SourceAddr: event.SourceAddr,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.logger.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write event record: %w", err)
	}
	return nil
}

// CanHandle reports that the writer records every event type.
func (w *Writer) CanHandle(domain.RegistryEventType) bool {
	return true
}

// Close flushes and closes the underlying log file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.logger.Close()
}
