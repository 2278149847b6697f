package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// TraceEntry is one completion call recorded as an NDJSON line.
//
// Prompts and image bytes are never written; only their sizes.
type TraceEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Driver       string    `json:"driver"`
	Model        string    `json:"model,omitempty"`
	Operation    string    `json:"operation,omitempty"`
	Images       int       `json:"images"`
	PromptChars  int       `json:"prompt_chars"`
	OutputChars  int       `json:"output_chars,omitempty"`
	FinishReason string    `json:"finish_reason,omitempty"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}

// traceSink serializes entries onto one open file.
type traceSink struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

var activeTrace atomic.Pointer[traceSink]

// EnableTracing appends every subsequent model call to the NDJSON file at
// path, replacing any earlier trace file. The returned func closes it.
func EnableTracing(path string) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	sink := &traceSink{f: f, enc: json.NewEncoder(f)}
	if prev := activeTrace.Swap(sink); prev != nil {
		_ = prev.close()
	}
	return func() error {
		activeTrace.CompareAndSwap(sink, nil)
		return sink.close()
	}, nil
}

// Trace records entry when a trace file is open.
func Trace(entry TraceEntry) {
	sink := activeTrace.Load()
	if sink == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.f != nil {
		_ = sink.enc.Encode(entry)
	}
}

func (s *traceSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
