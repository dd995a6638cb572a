// Package dataset reads the labeled complaint CSV and splits it for training.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
)

// Required CSV header names.
const (
	TextColumn  = "complaint_text"
	LabelColumn = "priority"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Dataset is the parsed CSV.
type Dataset struct {
	// Records holds rows with both a non-blank text and a non-blank label.
	Records []domain.Complaint
	// TotalRows counts every data row, labeled or not.
	TotalRows int
	// Distribution counts non-blank labels across all rows.
	Distribution map[string]int
}

// Skipped is the number of rows left out of Records.
func (d *Dataset) Skipped() int {
	return d.TotalRows - len(d.Records)
}

// Texts returns the record texts in file order.
func (d *Dataset) Texts() []string {
	out := make([]string, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Text
	}
	return out
}

// Labels returns the record labels in file order.
func (d *Dataset) Labels() []string {
	out := make([]string, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Priority
	}
	return out
}

// Classes returns the sorted distinct labels of Records.
func (d *Dataset) Classes() []string {
	seen := make(map[string]struct{})
	for _, r := range d.Records {
		seen[r.Priority] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// Load reads the CSV at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses CSV from r. Columns are located by header name; extra
// columns and ragged rows are tolerated.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	textIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case TextColumn:
			textIdx = i
		case LabelColumn:
			labelIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, TextColumn)
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, LabelColumn)
	}

	ds := &Dataset{Distribution: make(map[string]int)}
	for {
		row, readErr := cr.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read row %d: %w", ds.TotalRows+2, readErr)
		}
		ds.TotalRows++

		text := field(row, textIdx)
		label := strings.TrimSpace(field(row, labelIdx))
		if label != "" {
			ds.Distribution[label]++
		}
		if label == "" || strings.TrimSpace(text) == "" {
			continue
		}
		ds.Records = append(ds.Records, domain.Complaint{Text: text, Priority: label})
	}

	return ds, nil
}

func field(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
