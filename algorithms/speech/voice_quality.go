package speech

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-prosody/algorithms/common"
	"github.com/RyanBlaney/sonido-prosody/algorithms/tonal"
)

// PerturbationParams bounds the periods that take part in jitter and shimmer
type PerturbationParams struct {
	ShortestPeriod     float64 `json:"shortest_period"`      // seconds
	LongestPeriod      float64 `json:"longest_period"`       // seconds
	MaxPeriodFactor    float64 `json:"max_period_factor"`    // largest ratio between consecutive periods
	MaxAmplitudeFactor float64 `json:"max_amplitude_factor"` // largest ratio between consecutive amplitudes
}

// DefaultPerturbationParams returns the conventional speech-analysis bounds
func DefaultPerturbationParams() PerturbationParams {
	return PerturbationParams{
		ShortestPeriod:     0.0001,
		LongestPeriod:      0.02,
		MaxPeriodFactor:    1.3,
		MaxAmplitudeFactor: 1.6,
	}
}

// HarmonicityParams configures the cross-correlation harmonicity analysis
type HarmonicityParams struct {
	TimeStep         float64 `json:"time_step"`          // seconds between frames
	MinPitch         float64 `json:"min_pitch"`          // Hz, sets the longest lag
	SilenceThreshold float64 `json:"silence_threshold"`  // relative to the global peak
	PeriodsPerWindow float64 `json:"periods_per_window"` // integration window in MinPitch periods
}

// DefaultHarmonicityParams returns the conventional harmonicity settings
func DefaultHarmonicityParams(minPitch float64) HarmonicityParams {
	return HarmonicityParams{
		TimeStep:         0.01,
		MinPitch:         minPitch,
		SilenceThreshold: 0.1,
		PeriodsPerWindow: 1.0,
	}
}

// maxHNR caps the ratio for perfectly periodic frames (r -> 1)
const maxHNR = 100.0

// VoiceQualityAnalyzer analyzes voice quality characteristics
// WHY: Jitter, shimmer and harmonicity are the standard perturbation
// measures behind voice-quality and emotion heuristics
type VoiceQualityAnalyzer struct {
	sampleRate int
}

// NewVoiceQualityAnalyzer creates a new voice quality analyzer
func NewVoiceQualityAnalyzer(sampleRate int) *VoiceQualityAnalyzer {
	return &VoiceQualityAnalyzer{sampleRate: sampleRate}
}

// ExtractPulses places one glottal pulse per pitch period inside every voiced
// stretch of the pitch contour. Pulses sit on the waveform extremum of the
// polarity found at the start of the stretch. Returned times are in seconds
// and strictly increasing.
func (vqa *VoiceQualityAnalyzer) ExtractPulses(signal []float64, contour []tonal.PitchFrame, frameStep float64) []float64 {
	if len(signal) == 0 || len(contour) == 0 || vqa.sampleRate <= 0 {
		return []float64{}
	}

	sr := float64(vqa.sampleRate)
	pulses := []float64{}

	for _, stretch := range voicedStretches(contour) {
		startSample := max(0, int((contour[stretch[0]].Time-frameStep/2)*sr))
		endSample := min(len(signal), int((contour[stretch[1]].Time+frameStep/2)*sr))
		if endSample-startSample < 2 {
			continue
		}

		periodAt := func(sample int) float64 {
			t := float64(sample) / sr
			idx := stretch[0]
			for idx < stretch[1] && contour[idx+1].Time <= t {
				idx++
			}
			return sr / contour[idx].Frequency
		}

		// First pulse: strongest absolute extremum in the first period
		firstPeriod := int(math.Round(periodAt(startSample)))
		searchEnd := min(endSample, startSample+max(1, firstPeriod))
		pos := startSample
		for i := startSample; i < searchEnd; i++ {
			if math.Abs(signal[i]) > math.Abs(signal[pos]) {
				pos = i
			}
		}
		polarity := 1.0
		if signal[pos] < 0 {
			polarity = -1.0
		}
		pulses = append(pulses, float64(pos)/sr)

		for {
			period := periodAt(pos)
			tolerance := max(1, int(0.2*period))
			expected := pos + int(math.Round(period))
			lo := expected - tolerance
			hi := min(endSample-1, expected+tolerance)
			if lo <= pos {
				lo = pos + 1
			}
			if lo > hi {
				break
			}

			next := lo
			for i := lo; i <= hi; i++ {
				if polarity*signal[i] > polarity*signal[next] {
					next = i
				}
			}
			pulses = append(pulses, float64(next)/sr)
			pos = next
		}
	}

	return pulses
}

// voicedStretches returns [first, last] frame index pairs of consecutive voiced frames
func voicedStretches(contour []tonal.PitchFrame) [][2]int {
	var stretches [][2]int
	start := -1
	for i, f := range contour {
		if f.Frequency > 0 && start == -1 {
			start = i
		} else if f.Frequency <= 0 && start != -1 {
			stretches = append(stretches, [2]int{start, i - 1})
			start = -1
		}
	}
	if start != -1 {
		stretches = append(stretches, [2]int{start, len(contour) - 1})
	}
	return stretches
}

// JitterLocal is the mean absolute difference between consecutive periods
// divided by the mean period. Returns NaN when no consecutive pair of
// admissible periods exists.
func JitterLocal(pulses []float64, params PerturbationParams) float64 {
	periods, valid := admissiblePeriods(pulses, params)

	sumDiff, numDiff := 0.0, 0
	sumPeriod, numPeriod := 0.0, 0
	for i, p := range periods {
		if !valid[i] {
			continue
		}
		sumPeriod += p
		numPeriod++
		if i > 0 && valid[i-1] && withinFactor(p, periods[i-1], params.MaxPeriodFactor) {
			sumDiff += math.Abs(p - periods[i-1])
			numDiff++
		}
	}

	if numDiff == 0 || numPeriod == 0 {
		return math.NaN()
	}
	return (sumDiff / float64(numDiff)) / (sumPeriod / float64(numPeriod))
}

// ShimmerLocal is the mean absolute difference between the peak amplitudes
// of consecutive periods divided by the mean amplitude. Returns NaN when no
// admissible pair exists.
func (vqa *VoiceQualityAnalyzer) ShimmerLocal(signal []float64, pulses []float64, params PerturbationParams) float64 {
	periods, valid := admissiblePeriods(pulses, params)
	if len(periods) == 0 {
		return math.NaN()
	}

	sr := float64(vqa.sampleRate)
	amplitudes := make([]float64, len(periods))
	for i := range periods {
		lo := max(0, int(math.Round(pulses[i]*sr)))
		hi := min(len(signal), int(math.Round(pulses[i+1]*sr)))
		if lo < hi {
			amplitudes[i] = common.MaxAbs(signal[lo:hi])
		}
	}

	sumDiff, numDiff := 0.0, 0
	sumAmp, numAmp := 0.0, 0
	for i := range periods {
		if !valid[i] || amplitudes[i] == 0 {
			continue
		}
		sumAmp += amplitudes[i]
		numAmp++
		if i > 0 && valid[i-1] && amplitudes[i-1] > 0 &&
			withinFactor(periods[i], periods[i-1], params.MaxPeriodFactor) &&
			withinFactor(amplitudes[i], amplitudes[i-1], params.MaxAmplitudeFactor) {
			sumDiff += math.Abs(amplitudes[i] - amplitudes[i-1])
			numDiff++
		}
	}

	if numDiff == 0 || sumAmp == 0 {
		return math.NaN()
	}
	return (sumDiff / float64(numDiff)) / (sumAmp / float64(numAmp))
}

func admissiblePeriods(pulses []float64, params PerturbationParams) ([]float64, []bool) {
	if len(pulses) < 2 {
		return []float64{}, []bool{}
	}
	periods := make([]float64, len(pulses)-1)
	valid := make([]bool, len(periods))
	for i := range periods {
		periods[i] = pulses[i+1] - pulses[i]
		valid[i] = periods[i] >= params.ShortestPeriod && periods[i] <= params.LongestPeriod
	}
	return periods, valid
}

func withinFactor(a, b, factor float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	return math.Max(a, b)/math.Min(a, b) <= factor
}

// HarmonicsToNoise returns the mean harmonics-to-noise ratio in dB over the
// frames that are neither silent nor aperiodic. The per-frame ratio comes
// from the strongest normalized autocorrelation peak r: 10*log10(r/(1-r)).
// Returns NaN when no frame qualifies.
func (vqa *VoiceQualityAnalyzer) HarmonicsToNoise(signal []float64, params HarmonicityParams) (float64, error) {
	if vqa.sampleRate <= 0 {
		return math.NaN(), fmt.Errorf("sample rate must be positive: %d", vqa.sampleRate)
	}
	if params.MinPitch <= 0 || params.TimeStep <= 0 || params.PeriodsPerWindow <= 0 {
		return math.NaN(), fmt.Errorf("invalid harmonicity parameters: %+v", params)
	}

	sr := float64(vqa.sampleRate)
	maxLag := int(math.Ceil(sr / params.MinPitch))
	window := int(math.Ceil(params.PeriodsPerWindow * sr / params.MinPitch))
	frameSize := window + maxLag + 1
	hop := max(1, int(math.Round(params.TimeStep*sr)))

	if len(signal) < frameSize {
		return math.NaN(), nil
	}

	silence := params.SilenceThreshold * common.MaxAbs(signal)
	sum, count := 0.0, 0

	for start := 0; start+frameSize <= len(signal); start += hop {
		frame := signal[start : start+frameSize]
		if silence == 0 || common.MaxAbs(frame) < silence {
			continue
		}

		r, ok := bestNormalizedPeak(frame, window, maxLag)
		if !ok {
			continue
		}
		if r > 1-1e-10 {
			sum += maxHNR
		} else {
			sum += math.Min(maxHNR, 10*math.Log10(r/(1-r)))
		}
		count++
	}

	if count == 0 {
		return math.NaN(), nil
	}
	return sum / float64(count), nil
}

// bestNormalizedPeak finds the highest local maximum of the normalized
// cross-correlation between frame[:window] and its lagged copies
func bestNormalizedPeak(frame []float64, window, maxLag int) (float64, bool) {
	mean := common.Mean(frame)
	centered := make([]float64, len(frame))
	for i, v := range frame {
		centered[i] = v - mean
	}

	cross := common.CrossCorrelate(centered[:window], centered, maxLag+1)

	prefix := make([]float64, len(centered)+1)
	for i, v := range centered {
		prefix[i+1] = prefix[i] + v*v
	}
	e0 := prefix[window]
	if e0 <= 0 {
		return 0, false
	}

	norm := make([]float64, maxLag+2)
	for tau := 1; tau < len(norm); tau++ {
		et := prefix[tau+window] - prefix[tau]
		if et <= 0 {
			continue
		}
		norm[tau] = cross[tau] / math.Sqrt(e0*et)
	}

	best, found := 0.0, false
	for tau := 2; tau <= maxLag; tau++ {
		if norm[tau] > norm[tau-1] && norm[tau] >= norm[tau+1] && norm[tau] > best {
			best = norm[tau]
			found = true
		}
	}
	return best, found
}
