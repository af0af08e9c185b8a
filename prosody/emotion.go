package prosody

import (
	"github.com/RyanBlaney/sonido-prosody/algorithms/common"
)

// EmotionNormalizationConstants holds the empirical scales and label
// thresholds used by EmotionEstimator
type EmotionNormalizationConstants struct {
	// Arousal denominators
	PitchRangeSemitones float64 `json:"pitch_range_semitones" yaml:"pitch_range_semitones"`
	DynamicRangeDB      float64 `json:"dynamic_range_db" yaml:"dynamic_range_db"`
	SpeechRateSyllables float64 `json:"speech_rate_syllables" yaml:"speech_rate_syllables"`

	// Valence scales
	PitchValenceOffsetHz float64 `json:"pitch_valence_offset_hz" yaml:"pitch_valence_offset_hz"`
	PitchValenceScaleHz  float64 `json:"pitch_valence_scale_hz" yaml:"pitch_valence_scale_hz"`
	HNRValenceDB         float64 `json:"hnr_valence_db" yaml:"hnr_valence_db"`
	ModerateCVLow        float64 `json:"moderate_cv_low" yaml:"moderate_cv_low"`
	ModerateCVHigh       float64 `json:"moderate_cv_high" yaml:"moderate_cv_high"`

	// Label thresholds
	PitchCVLow         float64 `json:"pitch_cv_low" yaml:"pitch_cv_low"`
	PitchCVMedium      float64 `json:"pitch_cv_medium" yaml:"pitch_cv_medium"`
	IntensityStdLow    float64 `json:"intensity_std_low" yaml:"intensity_std_low"`
	IntensityStdMedium float64 `json:"intensity_std_medium" yaml:"intensity_std_medium"`
	PaceSlow           float64 `json:"pace_slow" yaml:"pace_slow"`
	PaceModerate       float64 `json:"pace_moderate" yaml:"pace_moderate"`
	HNRClear           float64 `json:"hnr_clear" yaml:"hnr_clear"`
	HNRModerate        float64 `json:"hnr_moderate" yaml:"hnr_moderate"`
	JitterRough        float64 `json:"jitter_rough" yaml:"jitter_rough"`
}

// DefaultEmotionNormalizationConstants returns the standard heuristic constants
func DefaultEmotionNormalizationConstants() EmotionNormalizationConstants {
	return EmotionNormalizationConstants{
		PitchRangeSemitones: 20,
		DynamicRangeDB:      30,
		SpeechRateSyllables: 7,

		PitchValenceOffsetHz: 100,
		PitchValenceScaleHz:  150,
		HNRValenceDB:         20,
		ModerateCVLow:        0.1,
		ModerateCVHigh:       0.3,

		PitchCVLow:         0.1,
		PitchCVMedium:      0.25,
		IntensityStdLow:    5,
		IntensityStdMedium: 10,
		PaceSlow:           3,
		PaceModerate:       5,
		HNRClear:           15,
		HNRModerate:        10,
		JitterRough:        0.02,
	}
}

// EmotionEstimator fuses the four feature summaries into bounded arousal and
// valence scores and categorical labels. It performs no I/O.
type EmotionEstimator struct {
	Constants EmotionNormalizationConstants
}

// NewEmotionEstimator creates an estimator with the default constants
func NewEmotionEstimator() EmotionEstimator {
	return EmotionEstimator{Constants: DefaultEmotionNormalizationConstants()}
}

// Estimate derives the emotional prosody summary.
//
// Arousal averages the pitch range, dynamic range and speech rate, each
// scaled and clamped to [0, 1]. Valence averages a pitch-height term and an
// HNR term in [-1, 1] with a variability term in {0, 0.5, 1}; the last one
// never goes negative, which biases valence upward.
func (e EmotionEstimator) Estimate(pitch PitchSummary, intensity IntensitySummary, rhythm RhythmSummary, quality VoiceQualitySummary) EmotionalProsodySummary {
	c := e.Constants
	cv := pitchCV(pitch)

	return EmotionalProsodySummary{
		ArousalEstimate:      e.arousal(pitch, intensity, rhythm),
		ValenceEstimate:      e.valence(pitch, quality),
		PitchVariability:     classify(cv, c.PitchCVLow, c.PitchCVMedium),
		IntensityVariability: classify(intensity.StdIntensity, c.IntensityStdLow, c.IntensityStdMedium),
		SpeakingPace:         e.pace(rhythm.SpeechRate),
		VoiceQualityRating:   e.qualityRating(quality),
	}
}

// ArousalComponents returns the pitch, intensity and rhythm arousal terms
func (e EmotionEstimator) ArousalComponents(pitch PitchSummary, intensity IntensitySummary, rhythm RhythmSummary) [3]float64 {
	c := e.Constants
	return [3]float64{
		clamp01(safeDiv(pitch.RangeSemitones, c.PitchRangeSemitones)),
		clamp01(safeDiv(intensity.DynamicRange, c.DynamicRangeDB)),
		clamp01(safeDiv(rhythm.SpeechRate, c.SpeechRateSyllables)),
	}
}

// ValenceComponents returns the pitch, voice quality and variability valence terms
func (e EmotionEstimator) ValenceComponents(pitch PitchSummary, quality VoiceQualitySummary) [3]float64 {
	c := e.Constants
	cv := pitchCV(pitch)

	pitchValence := common.Clamp(safeDiv(pitch.MeanF0-c.PitchValenceOffsetHz, c.PitchValenceScaleHz)-1, -1, 1)
	qualityValence := clamp01(safeDiv(quality.HNRMean, c.HNRValenceDB))*2 - 1

	variabilityValence := 0.5
	switch {
	case cv > c.ModerateCVLow && cv < c.ModerateCVHigh:
		variabilityValence = 1.0
	case cv <= c.ModerateCVLow:
		variabilityValence = 0.0
	}

	return [3]float64{pitchValence, qualityValence, variabilityValence}
}

func (e EmotionEstimator) arousal(pitch PitchSummary, intensity IntensitySummary, rhythm RhythmSummary) float64 {
	parts := e.ArousalComponents(pitch, intensity, rhythm)
	return (parts[0] + parts[1] + parts[2]) / 3
}

func (e EmotionEstimator) valence(pitch PitchSummary, quality VoiceQualitySummary) float64 {
	parts := e.ValenceComponents(pitch, quality)
	return (parts[0] + parts[1] + parts[2]) / 3
}

func (e EmotionEstimator) pace(speechRate float64) SpeakingPace {
	switch {
	case speechRate < e.Constants.PaceSlow:
		return PaceSlow
	case speechRate < e.Constants.PaceModerate:
		return PaceModerate
	default:
		return PaceFast
	}
}

func (e EmotionEstimator) qualityRating(quality VoiceQualitySummary) VoiceQualityRating {
	switch {
	case quality.HNRMean > e.Constants.HNRClear:
		return QualityClear
	case quality.HNRMean > e.Constants.HNRModerate:
		return QualityModerate
	case quality.JitterLocal > e.Constants.JitterRough:
		return QualityRough
	default:
		return QualityBreathy
	}
}

func classify(value, low, medium float64) Variability {
	switch {
	case value < low:
		return VariabilityLow
	case value < medium:
		return VariabilityMedium
	default:
		return VariabilityHigh
	}
}

// pitchCV is std_f0 / mean_f0, 0 when the mean is 0
func pitchCV(pitch PitchSummary) float64 {
	return safeDiv(pitch.StdF0, pitch.MeanF0)
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	return common.Clamp(v, 0, 1)
}
