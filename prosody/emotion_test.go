package prosody

import (
	"math"
	"slices"
	"testing"
)

func TestEstimateStaysBounded(t *testing.T) {
	e := NewEmotionEstimator()
	extremes := []float64{-1e6, -1000, -1, 0, 1, 1000, 1e6, math.Inf(1), math.Inf(-1)}

	for _, x := range extremes {
		pitch := PitchSummary{MeanF0: x, StdF0: math.Abs(x), RangeSemitones: x}
		intensity := IntensitySummary{DynamicRange: x, StdIntensity: x}
		rhythm := RhythmSummary{SpeechRate: x}
		quality := VoiceQualitySummary{HNRMean: x, JitterLocal: x}

		for i, c := range e.ArousalComponents(pitch, intensity, rhythm) {
			if c < 0 || c > 1 {
				t.Fatalf("x=%v: arousal component %d = %v", x, i, c)
			}
		}
		for i, c := range e.ValenceComponents(pitch, quality) {
			if c < -1 || c > 1 {
				t.Fatalf("x=%v: valence component %d = %v", x, i, c)
			}
		}

		got := e.Estimate(pitch, intensity, rhythm, quality)
		if got.ArousalEstimate < 0 || got.ArousalEstimate > 1 {
			t.Fatalf("x=%v: arousal = %v", x, got.ArousalEstimate)
		}
		if got.ValenceEstimate < -1 || got.ValenceEstimate > 1 {
			t.Fatalf("x=%v: valence = %v", x, got.ValenceEstimate)
		}
	}

	saturated := e.Estimate(
		PitchSummary{RangeSemitones: 1000},
		IntensitySummary{DynamicRange: 1000},
		RhythmSummary{SpeechRate: 1000},
		VoiceQualitySummary{},
	)
	if saturated.ArousalEstimate != 1 {
		t.Fatalf("saturated arousal = %v, want 1", saturated.ArousalEstimate)
	}
}

func TestEstimateKnownValues(t *testing.T) {
	e := NewEmotionEstimator()

	// cv = 0.2 -> variability 1; mean 250 -> pitch valence 0; hnr 10 -> 0
	pitch := PitchSummary{MeanF0: 250, StdF0: 50, RangeSemitones: 10}
	intensity := IntensitySummary{DynamicRange: 15, StdIntensity: 7}
	rhythm := RhythmSummary{SpeechRate: 3.5}
	quality := VoiceQualitySummary{HNRMean: 10, JitterLocal: 0.01}

	got := e.Estimate(pitch, intensity, rhythm, quality)
	if math.Abs(got.ArousalEstimate-0.5) > 1e-12 {
		t.Fatalf("arousal = %v, want 0.5", got.ArousalEstimate)
	}
	if math.Abs(got.ValenceEstimate-1.0/3) > 1e-12 {
		t.Fatalf("valence = %v, want 1/3", got.ValenceEstimate)
	}
	want := EmotionalProsodySummary{
		ArousalEstimate:      got.ArousalEstimate,
		ValenceEstimate:      got.ValenceEstimate,
		PitchVariability:     VariabilityMedium,
		IntensityVariability: VariabilityMedium,
		SpeakingPace:         PaceModerate,
		VoiceQualityRating:   QualityBreathy,
	}
	if got != want {
		t.Fatalf("Estimate = %+v, want %+v", got, want)
	}
}

func TestVariabilityValenceSkew(t *testing.T) {
	e := NewEmotionEstimator()
	tests := []struct {
		name string
		mean float64
		std  float64
		want float64
	}{
		{"zero mean", 0, 30, 0},
		{"flat", 200, 0, 0},
		{"at lower bound", 200, 20, 0},
		{"moderate", 200, 40, 1},
		{"at upper bound", 200, 60, 0.5},
		{"wide", 200, 100, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ValenceComponents(PitchSummary{MeanF0: tt.mean, StdF0: tt.std}, VoiceQualitySummary{})[2]
			if got != tt.want {
				t.Fatalf("variability valence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLabelThresholds(t *testing.T) {
	e := NewEmotionEstimator()

	pitchCases := []struct {
		std  float64
		want Variability
	}{{0, VariabilityLow}, {19.9, VariabilityLow}, {20, VariabilityMedium}, {49.9, VariabilityMedium}, {50, VariabilityHigh}}
	for _, c := range pitchCases {
		got := e.Estimate(PitchSummary{MeanF0: 200, StdF0: c.std}, IntensitySummary{}, RhythmSummary{}, VoiceQualitySummary{})
		if got.PitchVariability != c.want {
			t.Errorf("std %v: pitch_variability = %s, want %s", c.std, got.PitchVariability, c.want)
		}
	}

	intensityCases := []struct {
		std  float64
		want Variability
	}{{0, VariabilityLow}, {4.99, VariabilityLow}, {5, VariabilityMedium}, {10, VariabilityHigh}}
	for _, c := range intensityCases {
		got := e.Estimate(PitchSummary{}, IntensitySummary{StdIntensity: c.std}, RhythmSummary{}, VoiceQualitySummary{})
		if got.IntensityVariability != c.want {
			t.Errorf("std %v: intensity_variability = %s, want %s", c.std, got.IntensityVariability, c.want)
		}
	}

	paceCases := []struct {
		rate float64
		want SpeakingPace
	}{{0, PaceSlow}, {2.99, PaceSlow}, {3, PaceModerate}, {4.99, PaceModerate}, {5, PaceFast}}
	for _, c := range paceCases {
		got := e.Estimate(PitchSummary{}, IntensitySummary{}, RhythmSummary{SpeechRate: c.rate}, VoiceQualitySummary{})
		if got.SpeakingPace != c.want {
			t.Errorf("rate %v: speaking_pace = %s, want %s", c.rate, got.SpeakingPace, c.want)
		}
	}

	qualityCases := []struct {
		hnr, jitter float64
		want        VoiceQualityRating
	}{
		{20, 0.05, QualityClear},
		{15.01, 0, QualityClear},
		{15, 0.05, QualityModerate},
		{10.01, 0, QualityModerate},
		{10, 0.03, QualityRough},
		{0, 0.021, QualityRough},
		{10, 0.02, QualityBreathy},
		{0, 0, QualityBreathy},
	}
	for _, c := range qualityCases {
		got := e.Estimate(PitchSummary{}, IntensitySummary{}, RhythmSummary{}, VoiceQualitySummary{HNRMean: c.hnr, JitterLocal: c.jitter})
		if got.VoiceQualityRating != c.want {
			t.Errorf("hnr %v jitter %v: rating = %s, want %s", c.hnr, c.jitter, got.VoiceQualityRating, c.want)
		}
	}
}

func TestLabelsComeFromClosedVocabularies(t *testing.T) {
	e := NewEmotionEstimator()
	for _, x := range []float64{0, 0.05, 0.2, 1, 4, 7, 12, 18, 100} {
		got := e.Estimate(
			PitchSummary{MeanF0: 200, StdF0: x * 10},
			IntensitySummary{StdIntensity: x},
			RhythmSummary{SpeechRate: x},
			VoiceQualitySummary{HNRMean: x, JitterLocal: x / 100},
		)
		if !slices.Contains(AllVariabilities, got.PitchVariability) ||
			!slices.Contains(AllVariabilities, got.IntensityVariability) ||
			!slices.Contains(AllSpeakingPaces, got.SpeakingPace) ||
			!slices.Contains(AllVoiceQualityRatings, got.VoiceQualityRating) {
			t.Fatalf("x=%v: label outside vocabulary: %+v", x, got)
		}
	}
}

func TestInjectedConstants(t *testing.T) {
	constants := DefaultEmotionNormalizationConstants()
	constants.SpeechRateSyllables = 14
	constants.PaceSlow = 10

	e := EmotionEstimator{Constants: constants}
	got := e.Estimate(PitchSummary{}, IntensitySummary{}, RhythmSummary{SpeechRate: 7}, VoiceQualitySummary{})

	if math.Abs(got.ArousalEstimate-0.5/3) > 1e-12 {
		t.Fatalf("arousal = %v, want %v", got.ArousalEstimate, 0.5/3)
	}
	if got.SpeakingPace != PaceSlow {
		t.Fatalf("speaking_pace = %s, want slow", got.SpeakingPace)
	}

	// zero denominators do not divide
	zero := EmotionEstimator{}.Estimate(PitchSummary{RangeSemitones: 5}, IntensitySummary{}, RhythmSummary{}, VoiceQualitySummary{})
	if math.IsNaN(zero.ArousalEstimate) || math.IsNaN(zero.ValenceEstimate) {
		t.Fatalf("zero constants produced NaN: %+v", zero)
	}
}
