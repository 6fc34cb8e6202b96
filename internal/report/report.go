// Package report provides best-effort diagnostic sinks for task reports.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Sink receives diagnostic text. Callers treat errors as informational:
// a missed report must never stop the caller.
type Sink interface {
	Report(text string) error
}

// WriterSink writes each report verbatim to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Report writes text to the underlying writer. Concurrent reports never
// interleave.
func (s *WriterSink) Report(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, text); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LogSink emits each line of a report as a structured log entry.
type LogSink struct {
	entry *log.Entry
}

// NewLogSink creates a sink logging through entry at Info level.
func NewLogSink(entry *log.Entry) *LogSink {
	return &LogSink{entry: entry}
}

// Report logs every non-empty line of text.
func (s *LogSink) Report(text string) error {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.entry.Info(line)
	}
	return nil
}

// Multi fans a report out to several sinks. Every sink is tried; the first
// error is returned.
type Multi []Sink

// Report sends text to every sink.
func (m Multi) Report(text string) error {
	var first error
	for _, s := range m {
		if err := s.Report(text); err != nil && first == nil {
			first = err
		}
	}
	return first
}
