package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingBrightness means a row (or a whole CSV header) carries neither
	// bright_ti4 nor bright_ti5.
	ErrMissingBrightness = errors.New("brightness column not found")

	// ErrInvalidBrightness means the brightness column exists but is not a number.
	ErrInvalidBrightness = errors.New("invalid brightness value")
)

// brightnessColumns lists the accepted brightness columns in preference order.
var brightnessColumns = []string{ColBrightTI4, ColBrightTI5}

// Brightness is a normalised brightness temperature and the column it came from.
type Brightness struct {
	Kelvin float64
	Source string
}

// NormalizeBrightness selects the first present brightness column of row.
// A missing column is an error, never a zero reading.
func NormalizeBrightness(row RawFIRMSRecord) (Brightness, error) {
	for _, col := range brightnessColumns {
		raw, ok := row[col]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Brightness{}, fmt.Errorf("%w: %s=%q", ErrInvalidBrightness, col, raw)
		}
		return Brightness{Kelvin: v, Source: col}, nil
	}
	return Brightness{}, fmt.Errorf("%w: expected one of %s", ErrMissingBrightness, strings.Join(brightnessColumns, ", "))
}

// HasBrightnessColumn reports whether a CSV header carries a usable brightness column.
func HasBrightnessColumn(header []string) bool {
	for _, h := range header {
		for _, col := range brightnessColumns {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return true
			}
		}
	}
	return false
}
