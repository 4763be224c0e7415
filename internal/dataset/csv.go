package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVOptions controls LoadCSV.
type CSVOptions struct {
	Header     bool    // Skip the first record
	Scale      float64 // Divide every feature by Scale when > 0 (255 for MNIST pixels)
	MaxSamples int     // Stop after this many samples (0 = load all)
}

// LoadCSV loads labeled samples from a CSV file.
//
// CSV Format (Kaggle-style):
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
//	0,0,0,0,...,0
//
// The first column is an integer label, the rest are features. Every row
// must have the width of the first data row.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	if opts.Header {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("CSV file is empty or missing header")
			}
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
	}

	d := &Dataset{}
	width := -1
	for row := 1; opts.MaxSamples <= 0 || d.Len() < opts.MaxSamples; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if width < 0 {
			width = len(record)
			if width < 2 {
				return nil, fmt.Errorf("invalid record length at row %d: need a label and at least one feature", row)
			}
		}
		if len(record) != width {
			return nil, fmt.Errorf("invalid record length at row %d: got %d, want %d", row, len(record), width)
		}

		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid label at row %d: %w", row, err)
		}
		if label < 0 {
			return nil, fmt.Errorf("negative label at row %d: %d", row, label)
		}

		features := make([]float64, width-1)
		for j := range features {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid feature at row %d, column %d: %w", row, j+1, err)
			}
			if opts.Scale > 0 {
				v /= opts.Scale
			}
			features[j] = v
		}

		d.X = append(d.X, features)
		d.Labels = append(d.Labels, label)
	}

	if d.Len() == 0 {
		return nil, fmt.Errorf("CSV file has no samples")
	}
	return d, nil
}
