package engine

import (
	"errors"
	"math"

	"github.com/RyanBlaney/sonido-prosody/algorithms/speech"
)

// ErrEmptyWaveform is returned when a nil or rate-less waveform is passed to an engine
var ErrEmptyWaveform = errors.New("empty waveform")

// AcousticEngine produces the low-level acoustic measurements that the
// prosody extractors consume. Implementations are expected to be safe for
// concurrent use across different waveforms.
type AcousticEngine interface {
	LoadWaveform(ref string) (*Waveform, error)
	PitchContour(w *Waveform, floorHz, ceilingHz, timeStep float64) (*PitchContour, error)
	IntensityContour(w *Waveform, minPitchHz, timeStep float64) (*IntensityContour, error)
	PeriodicityTrack(w *Waveform, floorHz, ceilingHz float64) (*PointProcess, error)
	JitterLocal(pp *PointProcess, p PerturbationParams) (float64, error)
	ShimmerLocal(w *Waveform, pp *PointProcess, p PerturbationParams) (float64, error)
	HarmonicsToNoiseMean(w *Waveform, p HarmonicityParams) (float64, error)
	RawSamples(w *Waveform) []float64
	TotalDuration(w *Waveform) float64
}

// Waveform is a decoded mono signal
type Waveform struct {
	Ref        string    `json:"ref"`
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// Duration returns the signal length in seconds
func (w *Waveform) Duration() float64 {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// PitchContour holds per-frame F0 estimates; unvoiced frames are 0 Hz
type PitchContour struct {
	Times       []float64 `json:"times"`
	Frequencies []float64 `json:"frequencies"`
	TimeStep    float64   `json:"time_step"`
}

// IntensityContour holds per-frame intensity in dB; NaN marks a missing frame
type IntensityContour struct {
	Times    []float64 `json:"times"`
	Values   []float64 `json:"values"`
	TimeStep float64   `json:"time_step"`
}

// PointProcess is a sequence of glottal pulse times in seconds
type PointProcess struct {
	Times []float64 `json:"times"`
}

// PerturbationParams and HarmonicityParams are the speech analyzers' own
// parameter sets, so engines pass them through unchanged.
type (
	PerturbationParams = speech.PerturbationParams
	HarmonicityParams  = speech.HarmonicityParams
)

// DefaultPerturbationParams returns the fixed voice-quality analysis window
func DefaultPerturbationParams() PerturbationParams {
	return speech.DefaultPerturbationParams()
}

// DefaultHarmonicityParams returns the fixed harmonicity settings for a pitch floor
func DefaultHarmonicityParams(minPitch float64) HarmonicityParams {
	return speech.DefaultHarmonicityParams(minPitch)
}

// Undefined reports whether an engine statistic could not be computed
func Undefined(v float64) bool {
	return math.IsNaN(v)
}
