package common

import (
	"math"
)

// InterpolationType defines interpolation method
type InterpolationType int

const (
	Linear InterpolationType = iota
	Lanczos
)

// lanczosA is the number of lobes of the Lanczos kernel
const lanczosA = 3

// Interpolator provides fractional-index reads and sample-rate conversion
type Interpolator struct {
	method InterpolationType
}

// NewInterpolator creates a new interpolator
func NewInterpolator(method InterpolationType) *Interpolator {
	return &Interpolator{
		method: method,
	}
}

// Interpolate performs interpolation at fractional index
func (interp *Interpolator) Interpolate(data []float64, index float64) float64 {
	switch interp.method {
	case Lanczos:
		return interp.lanczosInterpolate(data, index, 1.0)
	default:
		return interp.linearInterpolate(data, index)
	}
}

// linearInterpolate performs linear interpolation
func (interp *Interpolator) linearInterpolate(data []float64, index float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	if index <= 0 {
		return data[0]
	}
	if index >= float64(len(data)-1) {
		return data[len(data)-1]
	}

	i := int(index)
	frac := index - float64(i)
	return data[i] + frac*(data[i+1]-data[i])
}

// lanczosInterpolate evaluates a Lanczos-windowed sinc at index. A scale
// below 1 stretches the kernel, lowering its cutoff to scale*Nyquist.
func (interp *Interpolator) lanczosInterpolate(data []float64, index, scale float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	support := float64(lanczosA) / scale
	lo := max(0, int(math.Floor(index-support))+1)
	hi := min(len(data)-1, int(math.Floor(index+support)))

	sum, weights := 0.0, 0.0
	for j := lo; j <= hi; j++ {
		w := lanczosKernel((index-float64(j))*scale, lanczosA)
		sum += data[j] * w
		weights += w
	}
	if weights == 0 {
		return interp.linearInterpolate(data, index)
	}
	return sum / weights
}

// lanczosKernel computes Lanczos kernel function
func lanczosKernel(x float64, a int) float64 {
	if math.Abs(x) < 1e-10 {
		return 1.0
	}
	if math.Abs(x) >= float64(a) {
		return 0.0
	}

	px := math.Pi * x
	return (float64(a) * math.Sin(px) * math.Sin(px/float64(a))) / (px * px)
}

// ResampleSignal resamples a signal to a new sample rate. With the Lanczos
// method the kernel is widened when downsampling so content above the new
// Nyquist frequency is suppressed.
func (interp *Interpolator) ResampleSignal(signal []float64, originalRate, targetRate int) []float64 {
	if len(signal) == 0 || originalRate <= 0 || targetRate <= 0 || originalRate == targetRate {
		return signal
	}

	ratio := float64(originalRate) / float64(targetRate)
	newLength := int(float64(len(signal)) / ratio)
	if newLength <= 0 {
		return []float64{}
	}

	scale := math.Min(1.0, 1.0/ratio)
	resampled := make([]float64, newLength)
	for i := range resampled {
		sourceIndex := float64(i) * ratio
		if interp.method == Lanczos {
			resampled[i] = interp.lanczosInterpolate(signal, sourceIndex, scale)
		} else {
			resampled[i] = interp.Interpolate(signal, sourceIndex)
		}
	}

	return resampled
}
