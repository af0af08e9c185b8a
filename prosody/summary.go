package prosody

import "slices"

// PitchSummary describes the F0 distribution over voiced frames
type PitchSummary struct {
	MeanF0         float64 `json:"mean_f0" yaml:"mean_f0"`
	MedianF0       float64 `json:"median_f0" yaml:"median_f0"`
	StdF0          float64 `json:"std_f0" yaml:"std_f0"`
	MinF0          float64 `json:"min_f0" yaml:"min_f0"`
	MaxF0          float64 `json:"max_f0" yaml:"max_f0"`
	RangeF0        float64 `json:"range_f0" yaml:"range_f0"`
	RangeSemitones float64 `json:"range_semitones" yaml:"range_semitones"`
	VoicedFraction float64 `json:"voiced_fraction" yaml:"voiced_fraction"` // voiced frames / all frames
}

// IntensitySummary describes the loudness distribution in dB
type IntensitySummary struct {
	MeanIntensity   float64 `json:"mean_intensity" yaml:"mean_intensity"`
	MedianIntensity float64 `json:"median_intensity" yaml:"median_intensity"`
	StdIntensity    float64 `json:"std_intensity" yaml:"std_intensity"`
	MinIntensity    float64 `json:"min_intensity" yaml:"min_intensity"`
	MaxIntensity    float64 `json:"max_intensity" yaml:"max_intensity"`
	DynamicRange    float64 `json:"dynamic_range" yaml:"dynamic_range"`
}

// RhythmSummary describes timing: rates in estimated syllables per second,
// durations in seconds
type RhythmSummary struct {
	SpeechRate        float64 `json:"speech_rate" yaml:"speech_rate"`
	ArticulationRate  float64 `json:"articulation_rate" yaml:"articulation_rate"`
	PauseCount        int     `json:"pause_count" yaml:"pause_count"`
	MeanPauseDuration float64 `json:"mean_pause_duration" yaml:"mean_pause_duration"`
	TotalPauseTime    float64 `json:"total_pause_time" yaml:"total_pause_time"`
	SpeakingTime      float64 `json:"speaking_time" yaml:"speaking_time"`
	TotalDuration     float64 `json:"total_duration" yaml:"total_duration"`
}

// VoiceQualitySummary holds perturbation and harmonicity measures. Metrics
// the engine could not compute are stored as 0 and listed in UndefinedMetrics.
type VoiceQualitySummary struct {
	JitterLocal  float64 `json:"jitter_local" yaml:"jitter_local"`
	ShimmerLocal float64 `json:"shimmer_local" yaml:"shimmer_local"`
	HNRMean      float64 `json:"hnr_mean" yaml:"hnr_mean"`
	CrestFactor  float64 `json:"crest_factor" yaml:"crest_factor"`

	UndefinedMetrics []string `json:"undefined_metrics,omitempty" yaml:"undefined_metrics,omitempty"`
}

// IsUndefined reports whether metric was NaN before normalisation
func (v VoiceQualitySummary) IsUndefined(metric string) bool {
	return slices.Contains(v.UndefinedMetrics, metric)
}

// EmotionalProsodySummary holds the heuristic emotion estimates
type EmotionalProsodySummary struct {
	ArousalEstimate      float64            `json:"arousal_estimate" yaml:"arousal_estimate"` // [0, 1]
	ValenceEstimate      float64            `json:"valence_estimate" yaml:"valence_estimate"` // [-1, 1]
	PitchVariability     Variability        `json:"pitch_variability" yaml:"pitch_variability"`
	IntensityVariability Variability        `json:"intensity_variability" yaml:"intensity_variability"`
	SpeakingPace         SpeakingPace       `json:"speaking_pace" yaml:"speaking_pace"`
	VoiceQualityRating   VoiceQualityRating `json:"voice_quality_rating" yaml:"voice_quality_rating"`
}
