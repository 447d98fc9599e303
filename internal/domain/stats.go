package domain

import (
	"slices"
	"strings"
)

// RegionCount is the number of detections attributed to one region.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// Summary holds the dashboard headline statistics for a detection set.
type Summary struct {
	TotalHotspots     int           `json:"total_hotspots"`
	AverageBrightness float64       `json:"average_brightness"`
	MaxBrightness     float64       `json:"max_brightness"`
	RegionsAffected   int           `json:"regions_affected"`
	ByRegion          []RegionCount `json:"by_region"`
}

// Summarize computes headline statistics. Region counts follow the
// classifier's table order with RegionOther last; an empty set yields zeros.
func (c *RegionClassifier) Summarize(detections []Detection) Summary {
	s := Summary{TotalHotspots: len(detections), ByRegion: []RegionCount{}}
	if len(detections) == 0 {
		return s
	}

	counts := make(map[string]int)
	var sum float64
	s.MaxBrightness = detections[0].Brightness
	for _, d := range detections {
		sum += d.Brightness
		s.MaxBrightness = max(s.MaxBrightness, d.Brightness)
		counts[d.Region]++
	}
	s.AverageBrightness = sum / float64(len(detections))
	s.RegionsAffected = len(counts)

	for region, n := range counts {
		s.ByRegion = append(s.ByRegion, RegionCount{Region: region, Count: n})
	}
	slices.SortFunc(s.ByRegion, func(a, b RegionCount) int {
		if ra, rb := c.rank(a.Region), c.rank(b.Region); ra != rb {
			return ra - rb
		}
		return strings.Compare(a.Region, b.Region)
	})
	return s
}

// RegionNames returns the distinct regions present, in first-seen order.
func RegionNames(detections []Detection) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, d := range detections {
		if _, ok := seen[d.Region]; ok {
			continue
		}
		seen[d.Region] = struct{}{}
		names = append(names, d.Region)
	}
	return names
}

// FilterByRegions keeps detections whose region is selected. An empty
// selection keeps everything.
func FilterByRegions(detections []Detection, regions []string) []Detection {
	if len(regions) == 0 {
		return detections
	}
	out := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if slices.Contains(regions, d.Region) {
			out = append(out, d)
		}
	}
	return out
}
