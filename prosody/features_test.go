package prosody

import (
	"math"
	"testing"
)

func TestExtractPitchNoVoicedFrames(t *testing.T) {
	for _, contour := range [][]float64{nil, {}, {0, 0, 0}, {0, -1}} {
		if got := ExtractPitch(contour); got != (PitchSummary{}) {
			t.Errorf("ExtractPitch(%v) = %+v, want zero summary", contour, got)
		}
	}
}

func TestExtractPitchStatistics(t *testing.T) {
	got := ExtractPitch([]float64{0, 100, 200, 0})
	want := PitchSummary{
		MeanF0:         150,
		MedianF0:       150,
		StdF0:          50,
		MinF0:          100,
		MaxF0:          200,
		RangeF0:        100,
		RangeSemitones: 12,
		VoicedFraction: 0.5,
	}
	if got != want {
		t.Fatalf("ExtractPitch = %+v, want %+v", got, want)
	}

	constant := ExtractPitch([]float64{200, 200, 200, 200})
	if constant.MeanF0 != 200 || constant.StdF0 != 0 || constant.RangeSemitones != 0 || constant.VoicedFraction != 1 {
		t.Fatalf("constant contour = %+v", constant)
	}
}

func TestRangeSemitonesGuard(t *testing.T) {
	for _, minF0 := range []float64{0, -10, math.Inf(-1)} {
		for _, maxF0 := range []float64{0, 100, 1e9} {
			if got := rangeSemitones(minF0, maxF0); got != 0 {
				t.Errorf("rangeSemitones(%v, %v) = %v, want 0", minF0, maxF0, got)
			}
		}
	}
	if got := rangeSemitones(100, 400); math.Abs(got-24) > 1e-12 {
		t.Fatalf("two octaves = %v semitones, want 24", got)
	}
}

func TestExtractIntensityRepeatedValue(t *testing.T) {
	for _, v := range []float64{70, 0.1, 63.3, -12.5} {
		for _, n := range []int{1, 3, 10, 101} {
			values := make([]float64, n)
			for i := range values {
				values[i] = v
			}
			got := ExtractIntensity(values)
			if got.MeanIntensity != v || got.MedianIntensity != v || got.MinIntensity != v || got.MaxIntensity != v {
				t.Fatalf("v=%v n=%d: %+v", v, n, got)
			}
			if got.DynamicRange != 0 || got.StdIntensity != 0 {
				t.Fatalf("v=%v n=%d: range %v std %v, want 0", v, n, got.DynamicRange, got.StdIntensity)
			}
		}
	}
}

func TestExtractIntensityDropsNaN(t *testing.T) {
	nan := math.NaN()

	if got := ExtractIntensity([]float64{nan, nan}); got != (IntensitySummary{}) {
		t.Fatalf("all-NaN contour = %+v, want zero summary", got)
	}
	if got := ExtractIntensity(nil); got != (IntensitySummary{}) {
		t.Fatalf("empty contour = %+v, want zero summary", got)
	}

	got := ExtractIntensity([]float64{nan, 60, 80, nan, 70})
	want := IntensitySummary{
		MeanIntensity:   70,
		MedianIntensity: 70,
		StdIntensity:    math.Sqrt(200.0 / 3),
		MinIntensity:    60,
		MaxIntensity:    80,
		DynamicRange:    20,
	}
	if math.Abs(got.StdIntensity-want.StdIntensity) > 1e-12 {
		t.Fatalf("std = %v, want %v", got.StdIntensity, want.StdIntensity)
	}
	got.StdIntensity = want.StdIntensity
	if got != want {
		t.Fatalf("ExtractIntensity = %+v, want %+v", got, want)
	}
}
