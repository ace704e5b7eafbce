// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package trial

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Record is one timed phase of one repetition.
type Record struct {
	Elapsed time.Duration
	Backend string
	Phase   string
}

// Seconds returns the elapsed time in seconds.
func (r Record) Seconds() float64 {
	return r.Elapsed.Seconds()
}

// Fields returns the record as its three output columns.
func (r Record) Fields() []string {
	return []string{strconv.FormatFloat(r.Seconds(), 'g', -1, 64), r.Backend, r.Phase}
}

// Sink consumes records in the order they are produced.
type Sink interface {
	Emit(r Record) error

	// Flush is called after every repetition.
	Flush() error
}

// CSVSink writes records as "<seconds>,<backend>,<phase>" lines.
type CSVSink struct {
	w *csv.Writer
}

// NewCSVSink returns a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// Emit buffers one line.
func (s *CSVSink) Emit(r Record) error {
	return errors.Wrap(s.w.Write(r.Fields()), "write record")
}

// Flush writes buffered lines to the underlying writer.
func (s *CSVSink) Flush() error {
	s.w.Flush()
	return errors.Wrap(s.w.Error(), "flush records")
}

// MemorySink collects records in memory.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// Emit appends r.
func (s *MemorySink) Emit(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

// Flush is a no-op.
func (s *MemorySink) Flush() error { return nil }

// Records returns a copy of the collected records.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}
