package prosody

import (
	"math"

	"github.com/RyanBlaney/sonido-prosody/algorithms/common"
)

// ExtractPitch summarises a pitch contour. Frames at or below 0 Hz are
// unvoiced and excluded; a contour with no voiced frames yields a zero
// summary.
func ExtractPitch(frequencies []float64) PitchSummary {
	voiced := make([]float64, 0, len(frequencies))
	for _, f := range frequencies {
		if f > 0 {
			voiced = append(voiced, f)
		}
	}
	if len(voiced) == 0 {
		return PitchSummary{}
	}

	minF0 := common.Min(voiced)
	maxF0 := common.Max(voiced)

	summary := PitchSummary{
		MeanF0:         common.Mean(voiced),
		MedianF0:       common.Median(voiced),
		StdF0:          common.PopulationStdDev(voiced),
		MinF0:          minF0,
		MaxF0:          maxF0,
		RangeF0:        maxF0 - minF0,
		RangeSemitones: rangeSemitones(minF0, maxF0),
		VoicedFraction: float64(len(voiced)) / float64(len(frequencies)),
	}
	return summary
}

func rangeSemitones(minF0, maxF0 float64) float64 {
	if minF0 <= 0 || maxF0 <= 0 {
		return 0
	}
	return 12 * math.Log2(maxF0/minF0)
}

// ExtractIntensity summarises an intensity contour in dB. NaN frames are
// dropped; if none remain the summary is zero.
func ExtractIntensity(values []float64) IntensitySummary {
	valid := common.DropNaN(values)
	if len(valid) == 0 {
		return IntensitySummary{}
	}

	minDB := common.Min(valid)
	maxDB := common.Max(valid)

	return IntensitySummary{
		MeanIntensity:   common.Mean(valid),
		MedianIntensity: common.Median(valid),
		StdIntensity:    common.PopulationStdDev(valid),
		MinIntensity:    minDB,
		MaxIntensity:    maxDB,
		DynamicRange:    maxDB - minDB,
	}
}
