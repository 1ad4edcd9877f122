package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RecordSource is one tabular input: a header row plus data rows. Sources are
// opaque to the normalizer; anything that can expose columns resolvable to
// date, ticker and close qualifies.
type RecordSource interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Records returns the header row and the data rows.
	Records() (header []string, rows [][]string, err error)
}

// CSVSource reads records from a CSV file on disk. A UTF-8 BOM is tolerated
// so files re-saved by Excel load cleanly.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source backed by the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name returns the base name of the backing file.
func (s *CSVSource) Name() string {
	return filepath.Base(s.path)
}

// Records reads the entire file and splits it into header and data rows.
func (s *CSVSource) Records() ([]string, [][]string, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read csv source: %w", err)
	}

	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv source %s: %w", s.Name(), err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// DiscoverCSVSources finds all .csv files directly under dir and returns them
// as sources ordered by file name, so repeated runs see the same input order.
func DiscoverCSVSources(dir string) ([]RecordSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory %s: %w", dir, err)
	}

	var sources []RecordSource
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		sources = append(sources, NewCSVSource(filepath.Join(dir, entry.Name())))
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name() < sources[j].Name()
	})

	return sources, nil
}
