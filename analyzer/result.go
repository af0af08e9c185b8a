package analyzer

import (
	"github.com/RyanBlaney/sonido-prosody/prosody"
)

// AnalysisResult is the outcome of analysing one file. On success every
// summary is set; on failure all of them are nil, Duration is 0 and Error
// carries the reason. Results are not modified after Analyze returns.
type AnalysisResult struct {
	FilePath         string
	Duration         float64
	Pitch            *prosody.PitchSummary
	Intensity        *prosody.IntensitySummary
	Rhythm           *prosody.RhythmSummary
	VoiceQuality     *prosody.VoiceQualitySummary
	EmotionalProsody *prosody.EmotionalProsodySummary
	Success          bool
	Error            string
}

func failedResult(path string, err error) *AnalysisResult {
	return &AnalysisResult{
		FilePath: path,
		Success:  false,
		Error:    err.Error(),
	}
}

// Record is the serialised layout of an AnalysisResult. A failed result
// keeps only success, file_path and error.
type Record struct {
	Success          bool                             `json:"success" yaml:"success"`
	FilePath         string                           `json:"file_path" yaml:"file_path"`
	Duration         *float64                         `json:"duration,omitempty" yaml:"duration,omitempty"`
	Pitch            *prosody.PitchSummary            `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Intensity        *prosody.IntensitySummary        `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	Rhythm           *prosody.RhythmSummary           `json:"rhythm,omitempty" yaml:"rhythm,omitempty"`
	VoiceQuality     *prosody.VoiceQualitySummary     `json:"voice_quality,omitempty" yaml:"voice_quality,omitempty"`
	EmotionalProsody *prosody.EmotionalProsodySummary `json:"emotional_prosody,omitempty" yaml:"emotional_prosody,omitempty"`
	Error            string                           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Record converts the result into its output layout
func (r *AnalysisResult) Record() Record {
	if !r.Success {
		return Record{
			Success:  false,
			FilePath: r.FilePath,
			Error:    r.Error,
		}
	}

	duration := r.Duration
	return Record{
		Success:          true,
		FilePath:         r.FilePath,
		Duration:         &duration,
		Pitch:            r.Pitch,
		Intensity:        r.Intensity,
		Rhythm:           r.Rhythm,
		VoiceQuality:     r.VoiceQuality,
		EmotionalProsody: r.EmotionalProsody,
	}
}
