// Package dataset loads the sample sheet that drives a pipeline run. Each row
// describes one SRA run: its accession, read layout, primer pair, and length
// bounds. Records are immutable once loaded.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Layout distinguishes single-file from paired-file read sets. It selects
// both the extraction arguments and the filtering tool's output filenames.
type Layout string

const (
	LayoutPaired Layout = "paired"
	LayoutSingle Layout = "single"
)

// ParseLayout validates a layout cell from the sample sheet.
func ParseLayout(value string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(value))) {
	case LayoutPaired:
		return LayoutPaired, nil
	case LayoutSingle:
		return LayoutSingle, nil
	default:
		return "", fmt.Errorf("unknown layout %q", value)
	}
}

// Sample is one row of the sample sheet.
type Sample struct {
	Run       string
	Layout    Layout
	PrimerF   string
	PrimerR   string
	Trimmed   bool
	MinLength int
	MaxLength int
}

// Dir returns the per-run target directory under dataDir.
func (s Sample) Dir(dataDir string) string {
	return filepath.Join(dataDir, s.Run)
}

// Load reads the delimited sample sheet at path. The first row is a header;
// columns are matched by name so order is free. Values are type-coerced on
// load and a malformed row fails the whole load.
func Load(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample sheet: %w", err)
	}
	defer file.Close()

	return parse(file)
}

func parse(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read sample sheet header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"sra", "layout", "primer_f", "primer_r", "trimmed", "min_length", "max_length"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("sample sheet missing column %q", required)
		}
	}

	var samples []Sample
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sample sheet row %d: %w", line, err)
		}

		cell := func(name string) string { return strings.TrimSpace(row[index[name]]) }

		run := cell("sra")
		if run == "" {
			return nil, fmt.Errorf("sample sheet row %d: empty sra accession", line)
		}
		layout, err := ParseLayout(cell("layout"))
		if err != nil {
			return nil, fmt.Errorf("sample sheet row %d: %w", line, err)
		}
		trimmed, err := strconv.ParseBool(cell("trimmed"))
		if err != nil {
			return nil, fmt.Errorf("sample sheet row %d: parse trimmed: %w", line, err)
		}
		minLength, err := strconv.Atoi(cell("min_length"))
		if err != nil {
			return nil, fmt.Errorf("sample sheet row %d: parse min_length: %w", line, err)
		}
		maxLength, err := strconv.Atoi(cell("max_length"))
		if err != nil {
			return nil, fmt.Errorf("sample sheet row %d: parse max_length: %w", line, err)
		}
		if maxLength < minLength {
			return nil, fmt.Errorf("sample sheet row %d: max_length %d below min_length %d", line, maxLength, minLength)
		}

		samples = append(samples, Sample{
			Run:       run,
			Layout:    layout,
			PrimerF:   cell("primer_f"),
			PrimerR:   cell("primer_r"),
			Trimmed:   trimmed,
			MinLength: minLength,
			MaxLength: maxLength,
		})
	}
	return samples, nil
}
