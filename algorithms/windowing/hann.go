// Package windowing provides analysis windows for frame-based measures.
package windowing

import (
	"fmt"
	"math"
)

// Hann is a symmetric Hann window of fixed length. Besides plain
// application it computes the weighted moments used by intensity analysis.
type Hann struct {
	coefficients []float64
	sum          float64
}

// NewHann creates a symmetric window; a one-sample window is a unit weight
func NewHann(size int) *Hann {
	h := &Hann{coefficients: make([]float64, max(size, 0))}
	if size == 1 {
		h.coefficients[0] = 1
	} else {
		denominator := float64(size - 1)
		for i := range h.coefficients {
			h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
		}
	}
	for _, c := range h.coefficients {
		h.sum += c
	}
	return h
}

// Apply returns a windowed copy of signal, or nil on a length mismatch
func (h *Hann) Apply(signal []float64) []float64 {
	if len(signal) != len(h.coefficients) {
		return nil
	}
	windowed := make([]float64, len(signal))
	for i, v := range signal {
		windowed[i] = v * h.coefficients[i]
	}
	return windowed
}

// WeightedMean returns the window-weighted mean of frame
func (h *Hann) WeightedMean(frame []float64) (float64, error) {
	if err := h.check(frame); err != nil {
		return 0, err
	}
	mean := 0.0
	for i, v := range frame {
		mean += h.coefficients[i] * v
	}
	return mean / h.sum, nil
}

// WeightedMeanSquare returns the window-weighted mean of (x - offset)²
func (h *Hann) WeightedMeanSquare(frame []float64, offset float64) (float64, error) {
	if err := h.check(frame); err != nil {
		return 0, err
	}
	ms := 0.0
	for i, v := range frame {
		d := v - offset
		ms += h.coefficients[i] * d * d
	}
	return ms / h.sum, nil
}

func (h *Hann) check(frame []float64) error {
	if len(frame) != len(h.coefficients) {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), len(h.coefficients))
	}
	if h.sum <= 0 {
		return fmt.Errorf("window of size %d has no weight", len(h.coefficients))
	}
	return nil
}

// Coefficients returns a copy of the window weights
func (h *Hann) Coefficients() []float64 {
	out := make([]float64, len(h.coefficients))
	copy(out, h.coefficients)
	return out
}

func (h *Hann) Size() int { return len(h.coefficients) }
