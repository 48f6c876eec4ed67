// Package batch is the input boundary: it turns an uploaded delimited file
// into an ordered slice of lookup keys, isolating the two header-name
// conventions the spreadsheets arrive with.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"abcbizreport/internal/portal"
)

// The two header conventions seen across report spreadsheets. Matching is
// case-insensitive.
var (
	serviceHeaders  = []string{"service_number", "server_id"}
	lastNameHeaders = []string{"last_name"}
)

// HeaderError reports required columns missing from the input file. It is a
// precondition violation: no partial run is attempted.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("input file is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ReadCSV parses a header-rowed CSV into lookup keys, preserving row order.
// An input with headers but no data rows yields an empty, non-nil slice.
func ReadCSV(r io.Reader) ([]portal.LookupKey, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &HeaderError{Missing: []string{"service_number", "last_name"}}
	}
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	serviceCol := findColumn(header, serviceHeaders)
	lastNameCol := findColumn(header, lastNameHeaders)

	var missing []string
	if serviceCol < 0 {
		missing = append(missing, "service_number")
	}
	if lastNameCol < 0 {
		missing = append(missing, "last_name")
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing}
	}

	keys := []portal.LookupKey{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(keys)+2, err)
		}
		keys = append(keys, portal.LookupKey{
			ServiceNumber: cell(row, serviceCol),
			LastName:      cell(row, lastNameCol),
		})
	}
	return keys, nil
}

// ReadFile is ReadCSV over a file path.
func ReadFile(path string) ([]portal.LookupKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func findColumn(header []string, accepted []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, want := range accepted {
			if h == want {
				return i
			}
		}
	}
	return -1
}

// cell tolerates ragged rows; a missing trailing field reads as "".
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
