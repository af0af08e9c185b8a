package prosody

import (
	"fmt"

	"github.com/RyanBlaney/sonido-prosody/algorithms/common"
	"github.com/RyanBlaney/sonido-prosody/engine"
)

// Metric names recorded in VoiceQualitySummary.UndefinedMetrics
const (
	MetricJitterLocal  = "jitter_local"
	MetricShimmerLocal = "shimmer_local"
	MetricHNRMean      = "hnr_mean"
)

// VoiceQualityExtractor asks the engine for perturbation and harmonicity
// statistics with fixed analysis parameters and adds the crest factor
type VoiceQualityExtractor struct {
	Engine       engine.AcousticEngine
	Perturbation engine.PerturbationParams
	Harmonicity  engine.HarmonicityParams
}

// NewVoiceQualityExtractor uses the default perturbation window and a
// harmonicity analysis floored at pitchFloor
func NewVoiceQualityExtractor(e engine.AcousticEngine, pitchFloor float64) *VoiceQualityExtractor {
	return &VoiceQualityExtractor{
		Engine:       e,
		Perturbation: engine.DefaultPerturbationParams(),
		Harmonicity:  engine.DefaultHarmonicityParams(pitchFloor),
	}
}

// Extract builds the voice quality summary. Engine errors are returned;
// NaN statistics are stored as 0 and named in UndefinedMetrics.
func (vq *VoiceQualityExtractor) Extract(w *engine.Waveform, pp *engine.PointProcess) (VoiceQualitySummary, error) {
	var summary VoiceQualitySummary

	jitter, err := vq.Engine.JitterLocal(pp, vq.Perturbation)
	if err != nil {
		return VoiceQualitySummary{}, fmt.Errorf("jitter: %w", err)
	}
	shimmer, err := vq.Engine.ShimmerLocal(w, pp, vq.Perturbation)
	if err != nil {
		return VoiceQualitySummary{}, fmt.Errorf("shimmer: %w", err)
	}
	hnr, err := vq.Engine.HarmonicsToNoiseMean(w, vq.Harmonicity)
	if err != nil {
		return VoiceQualitySummary{}, fmt.Errorf("harmonicity: %w", err)
	}

	summary.JitterLocal = summary.normalize(MetricJitterLocal, jitter)
	summary.ShimmerLocal = summary.normalize(MetricShimmerLocal, shimmer)
	summary.HNRMean = summary.normalize(MetricHNRMean, hnr)
	summary.CrestFactor = common.CrestFactor(vq.Engine.RawSamples(w))

	return summary, nil
}

func (v *VoiceQualitySummary) normalize(metric string, value float64) float64 {
	if engine.Undefined(value) {
		v.UndefinedMetrics = append(v.UndefinedMetrics, metric)
	}
	return common.NaNToZero(value)
}
