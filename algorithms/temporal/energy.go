package temporal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-prosody/algorithms/windowing"
)

// ReferencePressure is the 0 dB reference for intensity (20 µPa), so a
// full-scale sample value of 1 is read as 1 Pa.
const ReferencePressure = 2e-5

// SilenceFloorDB is reported for frames with no energy, so digital silence
// stays numeric and falls below any pause threshold.
const SilenceFloorDB = -300.0

// Energy computes short-time intensity contours
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
	window     *windowing.Hann
}

// IntensityFrame is one point of an intensity contour
type IntensityFrame struct {
	Time float64 `json:"time"` // Frame centre (seconds)
	DB   float64 `json:"db"`   // Intensity in dB, NaN when the frame cannot be measured
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
		window:     windowing.NewHann(frameSize),
	}
}

// NewIntensityEnergy sizes the analysis for an intensity contour: the window
// spans 3.2 periods of minPitch and the hop defaults to 0.8 periods when
// timeStep is 0.
func NewIntensityEnergy(sampleRate int, minPitch, timeStep float64) (*Energy, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	if minPitch <= 0 {
		return nil, fmt.Errorf("minimum pitch must be positive: %.2f", minPitch)
	}
	if timeStep < 0 {
		return nil, fmt.Errorf("time step must not be negative: %.4f", timeStep)
	}
	if timeStep == 0 {
		timeStep = 0.8 / minPitch
	}

	sr := float64(sampleRate)
	frameSize := int(math.Round(3.2 / minPitch * sr))
	hopSize := max(1, int(math.Round(timeStep*sr)))

	return NewEnergy(frameSize, hopSize, sampleRate), nil
}

// FrameSize returns the analysis window length in samples
func (e *Energy) FrameSize() int { return e.frameSize }

// HopSize returns the hop between frames in samples
func (e *Energy) HopSize() int { return e.hopSize }

// ComputeIntensity returns a Hann-weighted, mean-subtracted intensity
// contour in dB re ReferencePressure. Frames with zero energy are clamped
// to SilenceFloorDB; NaN marks frames that could not be measured.
func (e *Energy) ComputeIntensity(signal []float64) []IntensityFrame {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []IntensityFrame{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	frames := make([]IntensityFrame, numFrames)
	sr := float64(e.sampleRate)

	for i := range numFrames {
		start := i * e.hopSize
		frame := signal[start : start+e.frameSize]
		frames[i].Time = (float64(start) + float64(e.frameSize)/2) / sr

		// Weighted mean removes DC before squaring
		mean, err := e.window.WeightedMean(frame)
		if err != nil {
			frames[i].DB = math.NaN()
			continue
		}
		meanSquare, _ := e.window.WeightedMeanSquare(frame, mean)

		if meanSquare <= 0 {
			frames[i].DB = SilenceFloorDB
			continue
		}
		frames[i].DB = max(SilenceFloorDB, 10*math.Log10(meanSquare/(ReferencePressure*ReferencePressure)))
	}

	return frames
}
