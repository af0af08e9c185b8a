// Package enginetest provides a scripted AcousticEngine for tests.
package enginetest

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-prosody/engine"
)

// ErrScripted is returned by Stub when a failure is requested
var ErrScripted = errors.New("scripted engine failure")

// Stub returns fixed contours and statistics regardless of the waveform
type Stub struct {
	Samples    []float64
	SampleRate int
	Duration   float64 // reported by TotalDuration; defaults to len(Samples)/SampleRate

	Pitch     []float64
	Intensity []float64
	Pulses    []float64

	Jitter  float64
	Shimmer float64
	HNR     float64

	LoadErr    error         // returned by LoadWaveform
	ContourErr error         // returned by PitchContour and IntensityContour
	QualityErr error         // returned by JitterLocal
	LoadDelay  time.Duration // sleep inside LoadWaveform
	PanicOn    string        // LoadWaveform panics with this message when set

	mu             sync.Mutex
	loads          int
	inFlight       int
	peakInFlight   int
	intensitySteps []float64
}

var _ engine.AcousticEngine = (*Stub)(nil)

// Silent returns a stub that reports NaN for every statistic
func Silent(sampleRate int, seconds float64) *Stub {
	return &Stub{
		Samples:    make([]float64, int(seconds*float64(sampleRate))),
		SampleRate: sampleRate,
		Jitter:     math.NaN(),
		Shimmer:    math.NaN(),
		HNR:        math.NaN(),
	}
}

// Loads reports how many LoadWaveform calls were made
func (s *Stub) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// PeakLoads reports the most LoadWaveform calls that ran at the same time
func (s *Stub) PeakLoads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakInFlight
}

// IntensityTimeSteps returns the timeStep argument of every IntensityContour call
func (s *Stub) IntensityTimeSteps() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.intensitySteps...)
}

func (s *Stub) LoadWaveform(ref string) (*engine.Waveform, error) {
	s.mu.Lock()
	s.loads++
	s.inFlight++
	s.peakInFlight = max(s.peakInFlight, s.inFlight)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.PanicOn != "" {
		panic(s.PanicOn)
	}
	if s.LoadDelay > 0 {
		time.Sleep(s.LoadDelay)
	}
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	rate := s.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	return &engine.Waveform{Ref: ref, Samples: s.Samples, SampleRate: rate}, nil
}

func (s *Stub) PitchContour(w *engine.Waveform, floorHz, ceilingHz, timeStep float64) (*engine.PitchContour, error) {
	if s.ContourErr != nil {
		return nil, s.ContourErr
	}
	return &engine.PitchContour{Times: frameTimes(len(s.Pitch), 0.01), Frequencies: s.Pitch, TimeStep: 0.01}, nil
}

func (s *Stub) IntensityContour(w *engine.Waveform, minPitchHz, timeStep float64) (*engine.IntensityContour, error) {
	s.mu.Lock()
	s.intensitySteps = append(s.intensitySteps, timeStep)
	s.mu.Unlock()
	if s.ContourErr != nil {
		return nil, s.ContourErr
	}
	return &engine.IntensityContour{Times: frameTimes(len(s.Intensity), 0.01), Values: s.Intensity, TimeStep: 0.01}, nil
}

func (s *Stub) PeriodicityTrack(w *engine.Waveform, floorHz, ceilingHz float64) (*engine.PointProcess, error) {
	return &engine.PointProcess{Times: s.Pulses}, nil
}

func (s *Stub) JitterLocal(pp *engine.PointProcess, p engine.PerturbationParams) (float64, error) {
	if s.QualityErr != nil {
		return math.NaN(), s.QualityErr
	}
	return s.Jitter, nil
}

func (s *Stub) ShimmerLocal(w *engine.Waveform, pp *engine.PointProcess, p engine.PerturbationParams) (float64, error) {
	return s.Shimmer, nil
}

func (s *Stub) HarmonicsToNoiseMean(w *engine.Waveform, p engine.HarmonicityParams) (float64, error) {
	return s.HNR, nil
}

func (s *Stub) RawSamples(w *engine.Waveform) []float64 {
	return s.Samples
}

func (s *Stub) TotalDuration(w *engine.Waveform) float64 {
	if s.Duration > 0 {
		return s.Duration
	}
	return w.Duration()
}

func frameTimes(n int, step float64) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = (float64(i) + 0.5) * step
	}
	return times
}
