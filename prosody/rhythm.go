package prosody

import (
	"math"

	"github.com/RyanBlaney/sonido-prosody/algorithms/common"
)

const (
	// DefaultPauseThresholdDB is how far below the mean intensity a frame must fall to count as pause
	DefaultPauseThresholdDB = 10.0
	// DefaultMinPeakDistance is the minimum separation, in frames, between syllable peaks
	DefaultMinPeakDistance = 5
)

// PauseSegment is one completed pause run
type PauseSegment struct {
	Start    float64 `json:"start"`    // seconds
	Duration float64 `json:"duration"` // run length times frame duration
}

// End returns the time the pause closes
func (p PauseSegment) End() float64 {
	return p.Start + p.Duration
}

// RhythmAnalysis is the full output of RhythmSegmenter
type RhythmAnalysis struct {
	Summary       RhythmSummary
	Segments      []PauseSegment // completed pauses, in order
	SyllablePeaks []int          // indices into the valid (non-NaN) intensity values
}

// RhythmSegmenter finds pauses and estimates syllable rate from an intensity
// contour.
//
// The syllable count is a coarse proxy: it is the number of intensity peaks
// at least MinPeakDistance frames apart, not a phonetic syllable detector.
// The pause threshold is a fixed offset below the mean intensity, so heavily
// compressed or normalised audio shows few or no pauses.
type RhythmSegmenter struct {
	PauseThresholdDB float64
	MinPeakDistance  int
}

// NewRhythmSegmenter creates a segmenter with the default threshold and peak distance
func NewRhythmSegmenter() RhythmSegmenter {
	return RhythmSegmenter{
		PauseThresholdDB: DefaultPauseThresholdDB,
		MinPeakDistance:  DefaultMinPeakDistance,
	}
}

// Segment classifies every intensity frame and derives the rhythm summary.
//
// NaN frames are never pause but still count toward the frame duration
// (totalDuration / len(intensity)). A pause run still open at the final
// frame is not counted and contributes no pause time.
func (rs RhythmSegmenter) Segment(totalDuration float64, intensity []float64) RhythmAnalysis {
	valid := common.DropNaN(intensity)

	pauses := rs.findPauses(totalDuration, intensity, valid)

	summary := RhythmSummary{
		PauseCount:    len(pauses),
		TotalDuration: totalDuration,
	}
	if len(pauses) > 0 {
		durations := make([]float64, len(pauses))
		for i, p := range pauses {
			durations[i] = p.Duration
			summary.TotalPauseTime += durations[i]
		}
		summary.MeanPauseDuration = common.Mean(durations)
	}
	summary.SpeakingTime = totalDuration - summary.TotalPauseTime

	peaks := common.FindPeaks(valid, rs.MinPeakDistance)
	syllables := float64(len(peaks))
	if totalDuration > 0 {
		summary.SpeechRate = syllables / totalDuration
	}
	if summary.SpeakingTime > 0 {
		summary.ArticulationRate = syllables / summary.SpeakingTime
	}

	return RhythmAnalysis{
		Summary:       summary,
		Segments:      pauses,
		SyllablePeaks: peaks,
	}
}

func (rs RhythmSegmenter) findPauses(totalDuration float64, intensity, valid []float64) []PauseSegment {
	pauses := []PauseSegment{}
	if len(valid) == 0 || len(intensity) == 0 {
		return pauses
	}

	threshold := common.Mean(valid) - rs.PauseThresholdDB
	frameDuration := totalDuration / float64(len(intensity))

	runStart := -1
	for i, v := range intensity {
		isPause := !math.IsNaN(v) && v < threshold
		switch {
		case isPause && runStart < 0:
			runStart = i
		case !isPause && runStart >= 0:
			pauses = append(pauses, PauseSegment{
				Start:    float64(runStart) * frameDuration,
				Duration: float64(i-runStart) * frameDuration,
			})
			runStart = -1
		}
	}
	return pauses
}
