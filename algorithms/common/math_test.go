package common

import (
	"math"
	"reflect"
	"testing"
)

func TestBasicStatistics(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if got := Mean(data); got != 5 {
		t.Fatalf("Mean = %v, want 5", got)
	}
	if got := PopulationStdDev(data); math.Abs(got-2) > 1e-12 {
		t.Fatalf("PopulationStdDev = %v, want 2", got)
	}
	if got := Median(data); got != 4.5 {
		t.Fatalf("Median = %v, want 4.5", got)
	}
	if got := Median([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("odd Median = %v, want 2", got)
	}
	if Min(data) != 2 || Max(data) != 9 {
		t.Fatalf("Min/Max = %v/%v", Min(data), Max(data))
	}
}

func TestEmptyInputsReturnZero(t *testing.T) {
	for name, fn := range map[string]func([]float64) float64{
		"Mean":             Mean,
		"PopulationStdDev": PopulationStdDev,
		"Median":           Median,
		"Min":              Min,
		"Max":              Max,
		"RMS":              RMS,
		"CrestFactor":      CrestFactor,
	} {
		if got := fn(nil); got != 0 {
			t.Errorf("%s(nil) = %v, want 0", name, got)
		}
	}
}

func TestCrestFactor(t *testing.T) {
	if got := CrestFactor(make([]float64, 100)); got != 0 {
		t.Fatalf("silent crest factor = %v, want 0", got)
	}

	square := []float64{1, -1, 1, -1}
	if got := CrestFactor(square); math.Abs(got-1) > 1e-12 {
		t.Fatalf("square wave crest factor = %v, want 1", got)
	}

	sine := make([]float64, 1000)
	for i := range sine {
		sine[i] = math.Sin(2 * math.Pi * float64(i) / 100)
	}
	if got := CrestFactor(sine); math.Abs(got-math.Sqrt2) > 1e-3 {
		t.Fatalf("sine crest factor = %v, want sqrt(2)", got)
	}

	impulse := []float64{0, 0, 0, 0.5}
	if got := CrestFactor(impulse); got < 1 {
		t.Fatalf("impulse crest factor = %v, want >= 1", got)
	}
}

func TestDropNaN(t *testing.T) {
	got := DropNaN([]float64{1, math.NaN(), 3, math.NaN()})
	if !reflect.DeepEqual(got, []float64{1, 3}) {
		t.Fatalf("DropNaN = %v", got)
	}
	if len(DropNaN([]float64{math.NaN()})) != 0 {
		t.Fatal("all-NaN input should produce an empty slice")
	}
}

func TestClampAndNaNToZero(t *testing.T) {
	if Clamp(5, 0, 1) != 1 || Clamp(-5, 0, 1) != 0 || Clamp(0.25, 0, 1) != 0.25 {
		t.Fatal("Clamp out of range")
	}
	if NaNToZero(math.NaN()) != 0 || NaNToZero(1.5) != 1.5 {
		t.Fatal("NaNToZero mismatch")
	}
}
