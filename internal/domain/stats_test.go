package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sampleDetections() []Detection {
	return []Detection{
		{ID: "1", Brightness: 300, Region: RegionOther},
		{ID: "2", Brightness: 340, Region: "Amazon"},
		{ID: "3", Brightness: 320, Region: "Western North America"},
		{ID: "4", Brightness: 360, Region: "Amazon"},
	}
}

func TestSummarize(t *testing.T) {
	s := DefaultClassifier().Summarize(sampleDetections())

	want := Summary{
		TotalHotspots:     4,
		AverageBrightness: 330,
		MaxBrightness:     360,
		RegionsAffected:   3,
		ByRegion: []RegionCount{
			{Region: "Western North America", Count: 1},
			{Region: "Amazon", Count: 2},
			{Region: RegionOther, Count: 1},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := DefaultClassifier().Summarize(nil)

	assert.Equal(t, 0, s.TotalHotspots)
	assert.Equal(t, 0.0, s.AverageBrightness)
	assert.Equal(t, 0, s.RegionsAffected)
	assert.Empty(t, s.ByRegion)
	assert.NotNil(t, s.ByRegion)
}

func TestSummarize_UnknownRegionSortsAfterOther(t *testing.T) {
	s := DefaultClassifier().Summarize([]Detection{
		{Region: "Atlantis"},
		{Region: RegionOther},
		{Region: "Siberia"},
	})

	got := make([]string, len(s.ByRegion))
	for i, rc := range s.ByRegion {
		got[i] = rc.Region
	}
	assert.Equal(t, []string{"Siberia", RegionOther, "Atlantis"}, got)
}

func TestRegionNames(t *testing.T) {
	assert.Equal(t, []string{RegionOther, "Amazon", "Western North America"}, RegionNames(sampleDetections()))
	assert.Empty(t, RegionNames(nil))
}

func TestFilterByRegions(t *testing.T) {
	all := sampleDetections()

	t.Run("empty selection keeps everything", func(t *testing.T) {
		assert.Equal(t, all, FilterByRegions(all, nil))
	})

	t.Run("single region", func(t *testing.T) {
		out := FilterByRegions(all, []string{"Amazon"})
		assert.Len(t, out, 2)
		for _, d := range out {
			assert.Equal(t, "Amazon", d.Region)
		}
	})

	t.Run("unknown region", func(t *testing.T) {
		assert.Empty(t, FilterByRegions(all, []string{"Atlantis"}))
	})
}
