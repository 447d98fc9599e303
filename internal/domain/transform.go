package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrInvalidCoordinate means latitude or longitude is missing, not a number,
// or not finite.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ParseRawEvent deserializes a RawEvent's value into a Detection.
// It expects the flat CSV-style JSON produced by the FIRMS poller or collector.
func ParseRawEvent(raw RawEvent) (Detection, error) {
	var rec RawFIRMSRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Detection{}, fmt.Errorf("parse raw event: %w", err)
	}
	return ParseRecord(rec, raw.Value)
}

// ParseRecord converts a single FIRMS row into a Detection. payload is kept as
// RawPayload and may be nil.
func ParseRecord(rec RawFIRMSRecord, payload []byte) (Detection, error) {
	lat, err := parseCoordinate(rec, ColLatitude)
	if err != nil {
		return Detection{}, err
	}
	lon, err := parseCoordinate(rec, ColLongitude)
	if err != nil {
		return Detection{}, err
	}

	brightness, err := NormalizeBrightness(rec)
	if err != nil {
		return Detection{}, fmt.Errorf("parse raw event: %w", err)
	}

	acquired := parseAcquired(rec[ColAcqDate], rec[ColAcqTime])
	satellite := strings.TrimSpace(rec[ColSatellite])
	instrument := strings.TrimSpace(rec[ColInstrument])

	return Detection{
		ID:               generateID(lat, lon, acquired, satellite, instrument),
		Geo:              Geo{Lat: lat, Lon: lon},
		Brightness:       brightness.Kelvin,
		BrightnessSource: brightness.Source,
		AcquiredAt:       acquired,
		Satellite:        satellite,
		Instrument:       instrument,
		Version:          strings.TrimSpace(rec[ColVersion]),
		Confidence:       strings.TrimSpace(rec[ColConfidence]),
		FRP:              parseFloatOrZero(rec[ColFRP]),
		Scan:             parseFloatOrZero(rec[ColScan]),
		Track:            parseFloatOrZero(rec[ColTrack]),
		DayNight:         strings.TrimSpace(rec[ColDayNight]),

		RawPayload: payload,
	}, nil
}

func parseCoordinate(rec RawFIRMSRecord, col string) (float64, error) {
	raw, ok := rec[col]
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("parse raw event: %w: %s missing", ErrInvalidCoordinate, col)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse raw event: %w: %s=%q", ErrInvalidCoordinate, col, raw)
	}
	return v, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseAcquired combines acq_date (YYYY-MM-DD) with acq_time (HHMM) in UTC.
// An unparseable date yields the zero time; an unparseable time yields midnight.
func parseAcquired(date, hhmm string) time.Time {
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}
	}
	return parseHHMM(day, hhmm)
}

// parseHHMM combines a base date with an HHMM time string (e.g. "1510" → 15:10).
// Shorter values are left-padded: "930" → 09:30, "5" → 00:05.
func parseHHMM(baseDate time.Time, hhmm string) time.Time {
	hhmm = strings.TrimSpace(hhmm)
	if hhmm == "" || len(hhmm) > 4 {
		return baseDate
	}
	hhmm = strings.Repeat("0", 4-len(hhmm)) + hhmm

	hour, errH := strconv.Atoi(hhmm[:2])
	mins, errM := strconv.Atoi(hhmm[2:])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || mins < 0 || mins > 59 {
		return baseDate
	}

	return time.Date(
		baseDate.Year(), baseDate.Month(), baseDate.Day(),
		hour, mins, 0, 0, time.UTC,
	)
}

// generateID produces a deterministic ID from the detection's key fields so a
// replayed snapshot upserts rather than duplicates.
func generateID(lat, lon float64, acquired time.Time, satellite, instrument string) string {
	input := fmt.Sprintf("%.5f|%.5f|%s|%s|%s", lat, lon, acquired.UTC().Format(time.RFC3339), satellite, instrument)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if instrument == "" {
		return short
	}
	return strings.ToLower(instrument) + "-" + short
}

// EnrichDetection classifies and normalizes a parsed detection: it assigns the
// region, normalizes confidence and day/night codes, derives the hourly time
// bucket and stamps the processing time.
func EnrichDetection(d Detection, classifier *RegionClassifier) Detection {
	if d.Region == "" {
		d.Region = classifier.Classify(d.Geo.Lat, d.Geo.Lon)
	}
	d.Confidence = normalizeConfidence(d.Confidence)
	d.DayNight = normalizeDayNight(d.DayNight)
	d.TimeBucket = deriveTimeBucket(d.AcquiredAt)
	d.ProcessedAt = clock.Now()
	return d
}

// normalizeConfidence expands VIIRS letter codes. Numeric MODIS percentages
// and anything unrecognised pass through unchanged.
func normalizeConfidence(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "l", "low":
		return "low"
	case "n", "nominal":
		return "nominal"
	case "h", "high":
		return "high"
	default:
		return strings.TrimSpace(value)
	}
}

func normalizeDayNight(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "D":
		return "day"
	case "N":
		return "night"
	default:
		return ""
	}
}

// deriveTimeBucket truncates the acquisition time to the hour in UTC (RFC 3339).
// Returns "" if the input is zero.
func deriveTimeBucket(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Hour).Format(time.RFC3339)
}
