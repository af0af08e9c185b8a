package tonal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-prosody/algorithms/common"
)

// PitchDetectionParams contains parameters for pitch detection
type PitchDetectionParams struct {
	SampleRate int `json:"sample_rate"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Minimum frequency (Hz), the pitch floor
	MaxFreq float64 `json:"max_freq"` // Maximum frequency (Hz), the pitch ceiling

	// YIN threshold on the cumulative mean normalized difference (0.1-0.5)
	YinThreshold float64 `json:"yin_threshold"`

	// Frames whose peak amplitude is below SilenceThreshold times the
	// global peak of the signal are reported unvoiced
	SilenceThreshold float64 `json:"silence_threshold"`

	// Number of pitch-floor periods in the integration window
	PeriodsPerWindow float64 `json:"periods_per_window"`
}

// PitchDetectionResult contains the pitch estimate for a single frame
type PitchDetectionResult struct {
	Pitch      float64 `json:"pitch"`      // Best pitch estimate (Hz), 0 when unvoiced
	Confidence float64 `json:"confidence"` // 1 - CMNDF at the chosen lag
	Period     float64 `json:"period"`     // Interpolated period in samples
}

// PitchFrame is one point of a pitch contour
type PitchFrame struct {
	Time      float64 `json:"time"`      // Frame centre (seconds)
	Frequency float64 `json:"frequency"` // Hz, 0 when unvoiced
}

// PitchDetector implements YIN pitch detection over a fixed lag range
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
// - Boersma, P. (1993). "Accurate short-term analysis of the fundamental frequency"
//
// The difference function is evaluated through an FFT cross-correlation so
// the cost per frame is O(n log n) instead of O(n * maxLag).
type PitchDetector struct {
	params PitchDetectionParams

	minLag     int
	maxLag     int
	windowSize int // integration window W
}

// DefaultPitchDetectionParams returns speech-oriented defaults
func DefaultPitchDetectionParams(sampleRate int) PitchDetectionParams {
	return PitchDetectionParams{
		SampleRate:       sampleRate,
		MinFreq:          75.0,  // Low male voice
		MaxFreq:          500.0, // High female/child voice
		YinThreshold:     0.15,
		SilenceThreshold: 0.03,
		PeriodsPerWindow: 3.0,
	}
}

// NewPitchDetector creates a new pitch detector with default parameters
func NewPitchDetector(sampleRate int) (*PitchDetector, error) {
	return NewPitchDetectorWithParams(DefaultPitchDetectionParams(sampleRate))
}

// NewPitchDetectorWithParams creates a pitch detector with custom parameters
func NewPitchDetectorWithParams(params PitchDetectionParams) (*PitchDetector, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", params.SampleRate)
	}
	if params.MinFreq <= 0 || params.MaxFreq <= params.MinFreq {
		return nil, fmt.Errorf("invalid pitch range [%.1f, %.1f] Hz", params.MinFreq, params.MaxFreq)
	}
	if params.MaxFreq >= float64(params.SampleRate)/2 {
		return nil, fmt.Errorf("pitch ceiling %.1f Hz must be below Nyquist (%d Hz)", params.MaxFreq, params.SampleRate/2)
	}
	if params.PeriodsPerWindow <= 0 {
		params.PeriodsPerWindow = 3.0
	}

	sr := float64(params.SampleRate)
	pd := &PitchDetector{
		params:     params,
		minLag:     max(2, int(math.Floor(sr/params.MaxFreq))),
		maxLag:     int(math.Ceil(sr / params.MinFreq)),
		windowSize: int(math.Ceil(params.PeriodsPerWindow * sr / params.MinFreq)),
	}
	return pd, nil
}

// FrameSize is the number of samples one YIN frame spans
func (pd *PitchDetector) FrameSize() int {
	return pd.windowSize + pd.maxLag + 1
}

// TrackPitch slides the detector across signal every hopSize samples and
// returns one frame per hop. Silent or aperiodic frames carry 0 Hz.
func (pd *PitchDetector) TrackPitch(signal []float64, hopSize int) ([]PitchFrame, error) {
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive: %d", hopSize)
	}

	frameSize := pd.FrameSize()
	if len(signal) < frameSize {
		return []PitchFrame{}, nil
	}

	globalPeak := common.MaxAbs(signal)
	silence := pd.params.SilenceThreshold * globalPeak
	sr := float64(pd.params.SampleRate)

	numFrames := (len(signal)-frameSize)/hopSize + 1
	frames := make([]PitchFrame, numFrames)

	for i := range numFrames {
		start := i * hopSize
		frame := signal[start : start+frameSize]
		frames[i].Time = (float64(start) + float64(frameSize)/2) / sr

		if globalPeak == 0 || common.MaxAbs(frame) < silence {
			continue
		}

		result := pd.detectPitchYin(frame)
		frames[i].Frequency = result.Pitch
	}

	return frames, nil
}

// detectPitchYin implements the YIN pitch detection algorithm
// Reference: de Cheveigné, A., Kawahara, H. (2002)
func (pd *PitchDetector) detectPitchYin(audioFrame []float64) *PitchDetectionResult {
	w := pd.windowSize
	maxLag := pd.maxLag

	// Difference function d(tau) = E(0) + E(tau) - 2 r(tau)
	cross := common.CrossCorrelate(audioFrame[:w], audioFrame, maxLag+1)

	prefix := make([]float64, len(audioFrame)+1)
	for i, v := range audioFrame {
		prefix[i+1] = prefix[i] + v*v
	}
	energyAt := func(tau int) float64 {
		return prefix[tau+w] - prefix[tau]
	}

	diff := make([]float64, maxLag+2)
	e0 := energyAt(0)
	for tau := 1; tau < len(diff); tau++ {
		d := e0 + energyAt(tau) - 2*cross[tau]
		if d < 0 {
			d = 0
		}
		diff[tau] = d
	}

	// Cumulative mean normalized difference function
	cmndf := make([]float64, len(diff))
	cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff[tau] * float64(tau) / runningSum
	}

	result := &PitchDetectionResult{}

	// First local minimum below threshold inside the allowed lag range
	minTau := -1
	for tau := pd.minLag; tau <= maxLag; tau++ {
		if cmndf[tau] < pd.params.YinThreshold && cmndf[tau] < cmndf[tau+1] {
			minTau = tau
			break
		}
	}
	if minTau < 0 {
		return result
	}

	period := pd.parabolicInterpolation(cmndf, minTau)
	if period <= 0 {
		return result
	}
	frequency := float64(pd.params.SampleRate) / period

	if frequency >= pd.params.MinFreq && frequency <= pd.params.MaxFreq {
		result.Pitch = frequency
		result.Period = period
		result.Confidence = 1.0 - cmndf[minTau]
	}

	return result
}

// parabolicInterpolation refines a minimum location to sub-sample accuracy
func (pd *PitchDetector) parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) - b/(2*a)
}
