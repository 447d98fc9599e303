package firms

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
)

var requiredColumns = []string{domain.ColLatitude, domain.ColLongitude}

// ParseCSV turns a FIRMS area API response into rows keyed by lowercase
// column name. The header must carry latitude, longitude and a brightness
// column; a header with no rows is ErrNoData.
func ParseCSV(data []byte) ([]domain.RawFIRMSRecord, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoData
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var rows []domain.RawFIRMSRecord
	for line := 2; ; line++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}
		row := make(domain.RawFIRMSRecord, len(header))
		for i, col := range header {
			row[col] = fields[i]
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows, nil
}

func validateHeader(header []string) error {
	var missing []string
	for _, col := range requiredColumns {
		if !containsColumn(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing, Header: header}
	}
	if !domain.HasBrightnessColumn(header) {
		return fmt.Errorf("firms csv: %w", domain.ErrMissingBrightness)
	}
	return nil
}

func containsColumn(header []string, col string) bool {
	for _, h := range header {
		if h == col {
			return true
		}
	}
	return false
}
