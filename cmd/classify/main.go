// Command classify runs the region classifier over a FIRMS CSV file offline
// and prints the dashboard payloads as JSON: summary, viewport and, with
// -deck, the deck.gl map configuration.
//
// Usage:
//
//	go run ./cmd/classify -in data/mock/firms_viirs_snpp_nrt_250224.csv
//	go run ./cmd/classify -in - -region Amazon -region "Southeast Asia" -deck < snapshot.csv
//
// Processing time is pinned to the latest acquisition time in the file so the
// output is reproducible.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/adapter/firms"
	"github.com/couchcryptid/fire-hotspot-etl/internal/dashboard"
	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

type regionList []string

func (r *regionList) String() string { return strings.Join(*r, ",") }

func (r *regionList) Set(v string) error {
	if v = strings.TrimSpace(v); v != "" {
		*r = append(*r, v)
	}
	return nil
}

type output struct {
	Input      string             `json:"input"`
	Rows       int                `json:"rows"`
	Skipped    int                `json:"skipped"`
	Regions    []string           `json:"regions"`
	Summary    domain.Summary     `json:"summary"`
	Viewport   domain.Viewport    `json:"viewport"`
	Deck       *dashboard.Deck    `json:"deck,omitempty"`
	Detections []domain.Detection `json:"detections,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "classify:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "data/mock/firms_viirs_snpp_nrt_250224.csv", "FIRMS CSV file, or - for stdin")
	withDeck := fs.Bool("deck", false, "include the deck.gl map configuration")
	withRows := fs.Bool("detections", false, "include the classified detections")
	logLevel := fs.String("log-level", "warn", "log level for skipped-row warnings")
	var regions regionList
	fs.Var(&regions, "region", "restrict output to a region (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := observability.NewLoggerWithWriter(stderr, *logLevel, "console")

	data, err := readInput(*in, stdin)
	if err != nil {
		return err
	}
	rows, err := firms.ParseCSV(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *in, err)
	}

	detections, skipped := classify(rows, logger)
	selected := domain.FilterByRegions(detections, regions)
	vp := domain.EstimateViewport(domain.PointsOf(selected))

	out := output{
		Input:    *in,
		Rows:     len(rows),
		Skipped:  skipped,
		Regions:  domain.RegionNames(detections),
		Summary:  domain.DefaultClassifier().Summarize(selected),
		Viewport: vp,
	}
	if *withDeck {
		deck := dashboard.BuildDeck(selected, vp)
		out.Deck = &deck
	}
	if *withRows {
		out.Detections = selected
	}

	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(enc))
	return err
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// classify parses and enriches every row, skipping rows that fail to parse.
// The processing clock is frozen at the latest acquisition time.
func classify(rows []domain.RawFIRMSRecord, logger *slog.Logger) ([]domain.Detection, int) {
	parsed := make([]domain.Detection, 0, len(rows))
	var latest time.Time
	skipped := 0
	for i, row := range rows {
		d, err := domain.ParseRecord(row, nil)
		if err != nil {
			logger.Warn("skipping row", "line", i+2, "error", err)
			skipped++
			continue
		}
		if d.AcquiredAt.After(latest) {
			latest = d.AcquiredAt
		}
		parsed = append(parsed, d)
	}

	domain.SetClock(clockwork.NewFakeClockAt(latest))
	defer domain.SetClock(nil)

	classifier := domain.DefaultClassifier()
	for i := range parsed {
		parsed[i] = domain.EnrichDetection(parsed[i], classifier)
	}
	return parsed, skipped
}
