package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Sink receives evaluation rows: one header naming the classes, followed by
// one row of per-class values per evaluation.
type Sink interface {
	WriteHeader(labels []int) error
	WriteRow(values []float64) error
}

// CSVSink writes rows as CSV records, flushing after every record so a
// partially finished run leaves complete lines behind.
type CSVSink struct {
	w *csv.Writer
}

// NewCSVSink creates a CSV sink over w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// WriteHeader writes the class labels as the first record.
func (s *CSVSink) WriteHeader(labels []int) error {
	record := make([]string, len(labels))
	for i, l := range labels {
		record[i] = strconv.Itoa(l)
	}
	return s.write(record)
}

// WriteRow writes one record of values in shortest round-trip form.
func (s *CSVSink) WriteRow(values []float64) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return s.write(record)
}

func (s *CSVSink) write(record []string) error {
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("csv sink: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("csv sink: %w", err)
	}
	return nil
}

// Recorder keeps every row in memory.
type Recorder struct {
	Header []int
	Rows   [][]float64
}

// WriteHeader stores a copy of labels.
func (r *Recorder) WriteHeader(labels []int) error {
	r.Header = slices.Clone(labels)
	return nil
}

// WriteRow appends a copy of values.
func (r *Recorder) WriteRow(values []float64) error {
	r.Rows = append(r.Rows, slices.Clone(values))
	return nil
}
