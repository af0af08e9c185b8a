package engine

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-prosody/algorithms/speech"
	"github.com/RyanBlaney/sonido-prosody/algorithms/temporal"
	"github.com/RyanBlaney/sonido-prosody/algorithms/tonal"
	"github.com/RyanBlaney/sonido-prosody/logging"
	"github.com/RyanBlaney/sonido-prosody/transcode"
)

// Sonar is the native AcousticEngine: YIN pitch tracking, Hann-weighted
// intensity, peak-picked glottal pulses and cross-correlation harmonicity.
// It holds no per-waveform state.
type Sonar struct {
	decoder *transcode.Decoder
	logger  logging.Logger
}

var _ AcousticEngine = (*Sonar)(nil)

// NewSonar creates an engine that loads files with the given decoder
func NewSonar(decoder *transcode.Decoder) *Sonar {
	if decoder == nil {
		decoder = transcode.NewDecoder(nil)
	}
	return &Sonar{
		decoder: decoder,
		logger: logging.WithFields(logging.Fields{
			"component": "sonar_engine",
		}),
	}
}

// LoadWaveform decodes ref into a mono waveform
func (s *Sonar) LoadWaveform(ref string) (*Waveform, error) {
	data, err := s.decoder.DecodeFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load waveform %s: %w", ref, err)
	}

	s.logger.Debug("Waveform loaded", logging.Fields{
		"function":    "LoadWaveform",
		"file":        ref,
		"sample_rate": data.SampleRate,
		"samples":     len(data.PCM),
	})

	return &Waveform{
		Ref:        ref,
		Samples:    data.PCM,
		SampleRate: data.SampleRate,
	}, nil
}

// PitchContour tracks F0 between floorHz and ceilingHz. A timeStep of 0
// selects 0.75 periods of the floor.
func (s *Sonar) PitchContour(w *Waveform, floorHz, ceilingHz, timeStep float64) (*PitchContour, error) {
	if err := checkWaveform(w); err != nil {
		return nil, err
	}
	if timeStep < 0 {
		return nil, fmt.Errorf("time step must not be negative: %.4f", timeStep)
	}
	if timeStep == 0 && floorHz > 0 {
		timeStep = 0.75 / floorHz
	}

	frames, err := s.trackPitch(w, floorHz, ceilingHz, timeStep)
	if err != nil {
		return nil, err
	}

	contour := &PitchContour{
		Times:       make([]float64, len(frames)),
		Frequencies: make([]float64, len(frames)),
		TimeStep:    timeStep,
	}
	for i, f := range frames {
		contour.Times[i] = f.Time
		contour.Frequencies[i] = f.Frequency
	}
	return contour, nil
}

func (s *Sonar) trackPitch(w *Waveform, floorHz, ceilingHz, timeStep float64) ([]tonal.PitchFrame, error) {
	params := tonal.DefaultPitchDetectionParams(w.SampleRate)
	params.MinFreq = floorHz
	params.MaxFreq = ceilingHz

	detector, err := tonal.NewPitchDetectorWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch detector: %w", err)
	}

	hop := max(1, int(math.Round(timeStep*float64(w.SampleRate))))
	frames, err := detector.TrackPitch(w.Samples, hop)
	if err != nil {
		return nil, fmt.Errorf("pitch tracking failed: %w", err)
	}
	return frames, nil
}

// IntensityContour computes intensity in dB re 20 µPa. A timeStep of 0
// selects 0.8 periods of minPitchHz.
func (s *Sonar) IntensityContour(w *Waveform, minPitchHz, timeStep float64) (*IntensityContour, error) {
	if err := checkWaveform(w); err != nil {
		return nil, err
	}

	energy, err := temporal.NewIntensityEnergy(w.SampleRate, minPitchHz, timeStep)
	if err != nil {
		return nil, fmt.Errorf("failed to configure intensity analysis: %w", err)
	}

	frames := energy.ComputeIntensity(w.Samples)
	contour := &IntensityContour{
		Times:    make([]float64, len(frames)),
		Values:   make([]float64, len(frames)),
		TimeStep: float64(energy.HopSize()) / float64(w.SampleRate),
	}
	for i, f := range frames {
		contour.Times[i] = f.Time
		contour.Values[i] = f.DB
	}
	return contour, nil
}

// PeriodicityTrack places glottal pulses over the voiced parts of the signal
func (s *Sonar) PeriodicityTrack(w *Waveform, floorHz, ceilingHz float64) (*PointProcess, error) {
	if err := checkWaveform(w); err != nil {
		return nil, err
	}
	if floorHz <= 0 {
		return nil, fmt.Errorf("pitch floor must be positive: %.2f", floorHz)
	}

	timeStep := 0.75 / floorHz
	frames, err := s.trackPitch(w, floorHz, ceilingHz, timeStep)
	if err != nil {
		return nil, err
	}

	vqa := speech.NewVoiceQualityAnalyzer(w.SampleRate)
	return &PointProcess{Times: vqa.ExtractPulses(w.Samples, frames, timeStep)}, nil
}

// JitterLocal returns NaN when no admissible period pair exists
func (s *Sonar) JitterLocal(pp *PointProcess, p PerturbationParams) (float64, error) {
	if pp == nil {
		return math.NaN(), nil
	}
	return speech.JitterLocal(pp.Times, p), nil
}

// ShimmerLocal returns NaN when no admissible period pair exists
func (s *Sonar) ShimmerLocal(w *Waveform, pp *PointProcess, p PerturbationParams) (float64, error) {
	if err := checkWaveform(w); err != nil {
		return math.NaN(), err
	}
	if pp == nil {
		return math.NaN(), nil
	}
	vqa := speech.NewVoiceQualityAnalyzer(w.SampleRate)
	return vqa.ShimmerLocal(w.Samples, pp.Times, p), nil
}

// HarmonicsToNoiseMean returns NaN when no frame is both loud and periodic
func (s *Sonar) HarmonicsToNoiseMean(w *Waveform, p HarmonicityParams) (float64, error) {
	if err := checkWaveform(w); err != nil {
		return math.NaN(), err
	}
	vqa := speech.NewVoiceQualityAnalyzer(w.SampleRate)
	hnr, err := vqa.HarmonicsToNoise(w.Samples, p)
	if err != nil {
		return math.NaN(), fmt.Errorf("harmonicity analysis failed: %w", err)
	}
	return hnr, nil
}

// RawSamples returns the waveform samples without copying
func (s *Sonar) RawSamples(w *Waveform) []float64 {
	if w == nil {
		return nil
	}
	return w.Samples
}

// TotalDuration returns the waveform length in seconds
func (s *Sonar) TotalDuration(w *Waveform) float64 {
	return w.Duration()
}

func checkWaveform(w *Waveform) error {
	if w == nil || w.SampleRate <= 0 {
		return ErrEmptyWaveform
	}
	return nil
}
