package prosody

// Variability labels the spread of pitch or intensity
type Variability string

const (
	VariabilityLow    Variability = "low"
	VariabilityMedium Variability = "medium"
	VariabilityHigh   Variability = "high"
)

// AllVariabilities lists every Variability label
var AllVariabilities = []Variability{VariabilityLow, VariabilityMedium, VariabilityHigh}

// SpeakingPace labels the estimated speech rate
type SpeakingPace string

const (
	PaceSlow     SpeakingPace = "slow"
	PaceModerate SpeakingPace = "moderate"
	PaceFast     SpeakingPace = "fast"
)

// AllSpeakingPaces lists every SpeakingPace label
var AllSpeakingPaces = []SpeakingPace{PaceSlow, PaceModerate, PaceFast}

// VoiceQualityRating labels overall voice quality. Ratings are assigned by
// a priority chain in the order listed in AllVoiceQualityRatings.
type VoiceQualityRating string

const (
	QualityClear    VoiceQualityRating = "clear"
	QualityModerate VoiceQualityRating = "moderate"
	QualityRough    VoiceQualityRating = "rough"
	QualityBreathy  VoiceQualityRating = "breathy"
)

// AllVoiceQualityRatings lists every VoiceQualityRating label in priority order
var AllVoiceQualityRatings = []VoiceQualityRating{QualityClear, QualityModerate, QualityRough, QualityBreathy}
