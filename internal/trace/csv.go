// internal/trace/csv.go

package trace

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"strideq/internal/sched"
)

var csvHeader = []string{"timestamp", "tick", "event", "task_id", "priority", "pass", "ran_ticks"}

// CSVSink writes one row per dispatcher event.
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVSink creates (or truncates) path and writes the header.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv trace: %w", err)
	}
	s, err := NewCSVWriterSink(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// NewCSVWriterSink writes the trace to w. Close does not close w.
func NewCSVWriterSink(w io.Writer) (*CSVSink, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	cw.Flush()
	return &CSVSink{w: cw}, cw.Error()
}

func (s *CSVSink) Record(_ context.Context, ev sched.StatusEvent) error {
	rec := []string{
		ev.Time.Format(time.RFC3339Nano),
		strconv.FormatInt(ev.Tick, 10),
		ev.Kind.String(),
		strconv.FormatUint(uint64(ev.TaskID), 10),
		strconv.FormatInt(ev.Priority, 10),
		strconv.FormatUint(ev.Pass, 10),
		strconv.FormatInt(ev.RanTicks, 10),
	}
	if err := s.w.Write(rec); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
