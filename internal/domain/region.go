package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// RegionOther is assigned to points that fall inside no defined region.
const RegionOther = "Other"

// RegionDefinition is a named, inclusive lat/lon bounding box.
type RegionDefinition struct {
	Name   string  `json:"name" validate:"required"`
	LatMin float64 `json:"lat_min" validate:"gte=-90,lte=90"`
	LatMax float64 `json:"lat_max" validate:"gte=-90,lte=90,gtefield=LatMin"`
	LonMin float64 `json:"lon_min" validate:"gte=-180,lte=180"`
	LonMax float64 `json:"lon_max" validate:"gte=-180,lte=180,gtefield=LonMin"`
}

// Contains reports whether the point lies inside the box, bounds included.
func (r RegionDefinition) Contains(lat, lon float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && lon >= r.LonMin && lon <= r.LonMax
}

// defaultRegions is the reference table. Order is the tie-break for
// overlapping boxes: Indonesia must stay ahead of Southeast Asia, and Central
// Africa ahead of Southern Africa (shared edge at lat -15).
var defaultRegions = []RegionDefinition{
	{Name: "Western North America", LatMin: 30, LatMax: 60, LonMin: -130, LonMax: -110},
	{Name: "Australia", LatMin: -40, LatMax: 0, LonMin: 110, LonMax: 160},
	{Name: "Amazon", LatMin: -20, LatMax: 0, LonMin: -70, LonMax: -50},
	{Name: "Indonesia", LatMin: -10, LatMax: 10, LonMin: 95, LonMax: 125},
	{Name: "Southeast Asia", LatMin: -10, LatMax: 28, LonMin: 92, LonMax: 125},
	{Name: "Central Africa", LatMin: -15, LatMax: 15, LonMin: 10, LonMax: 40},
	{Name: "Southern Africa", LatMin: -35, LatMax: -15, LonMin: 10, LonMax: 42},
	{Name: "South Asia", LatMin: 5, LatMax: 35, LonMin: 65, LonMax: 92},
	{Name: "Mediterranean", LatMin: 30, LatMax: 45, LonMin: -10, LonMax: 40},
	{Name: "Siberia", LatMin: 50, LatMax: 75, LonMin: 60, LonMax: 180},
}

// DefaultRegions returns a copy of the reference region table.
func DefaultRegions() []RegionDefinition {
	out := make([]RegionDefinition, len(defaultRegions))
	copy(out, defaultRegions)
	return out
}

var regionValidate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRegions checks every definition's bounds and that names are unique.
func ValidateRegions(defs []RegionDefinition) error {
	if len(defs) == 0 {
		return errors.New("region table is empty")
	}
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if !isFinite(d.LatMin) || !isFinite(d.LatMax) || !isFinite(d.LonMin) || !isFinite(d.LonMax) {
			return fmt.Errorf("region %d (%q): bounds must be finite", i, d.Name)
		}
		if err := regionValidate.Struct(d); err != nil {
			return fmt.Errorf("region %d (%q): %w", i, d.Name, err)
		}
		if d.Name == RegionOther {
			return fmt.Errorf("region %d: name %q is reserved", i, RegionOther)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("region %d: duplicate name %q", i, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

// RegionClassifier assigns points to the first matching region of an ordered table.
// It holds no mutable state and is safe for concurrent use.
type RegionClassifier struct {
	regions []RegionDefinition
}

// NewRegionClassifier validates defs and returns a classifier over a private copy.
func NewRegionClassifier(defs []RegionDefinition) (*RegionClassifier, error) {
	if err := ValidateRegions(defs); err != nil {
		return nil, err
	}
	regions := make([]RegionDefinition, len(defs))
	copy(regions, defs)
	return &RegionClassifier{regions: regions}, nil
}

// DefaultClassifier returns a classifier over the reference table.
func DefaultClassifier() *RegionClassifier {
	return &RegionClassifier{regions: DefaultRegions()}
}

// Regions returns a copy of the classifier's ordered table.
func (c *RegionClassifier) Regions() []RegionDefinition {
	out := make([]RegionDefinition, len(c.regions))
	copy(out, c.regions)
	return out
}

// Classify returns the name of the first region containing the point, or
// RegionOther. Out-of-range or NaN coordinates fail every test and fall through.
func (c *RegionClassifier) Classify(lat, lon float64) string {
	for _, r := range c.regions {
		if r.Contains(lat, lon) {
			return r.Name
		}
	}
	return RegionOther
}

// ClassifyAll returns a copy of detections with Region assigned. Detections
// that already carry a region keep it.
func (c *RegionClassifier) ClassifyAll(detections []Detection) []Detection {
	out := make([]Detection, len(detections))
	for i, d := range detections {
		if d.Region == "" {
			d.Region = c.Classify(d.Geo.Lat, d.Geo.Lon)
		}
		out[i] = d
	}
	return out
}

// rank returns the table position of name, len(regions) for RegionOther, and
// len(regions)+1 for names the table does not know.
func (c *RegionClassifier) rank(name string) int {
	for i, r := range c.regions {
		if r.Name == name {
			return i
		}
	}
	if name == RegionOther {
		return len(c.regions)
	}
	return len(c.regions) + 1
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
