// Package analyzer runs the prosody pipeline over single files and over
// directories of recordings.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-prosody/config"
	"github.com/RyanBlaney/sonido-prosody/engine"
	"github.com/RyanBlaney/sonido-prosody/logging"
	"github.com/RyanBlaney/sonido-prosody/prosody"
)

// ErrTimeout marks an analysis that exceeded the per-file budget
var ErrTimeout = errors.New("analysis timed out")

// Analyzer turns one recording into an AnalysisResult. It is safe for
// concurrent use when its engine is.
type Analyzer struct {
	engine    engine.AcousticEngine
	config    config.AnalysisConfig
	timeout   time.Duration
	segmenter prosody.RhythmSegmenter
	estimator prosody.EmotionEstimator
	quality   *prosody.VoiceQualityExtractor
	logger    logging.Logger
}

type Option func(*Analyzer)

// WithTimeout bounds each Analyze call; 0 disables the bound
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

func WithEstimator(e prosody.EmotionEstimator) Option {
	return func(a *Analyzer) { a.estimator = e }
}

func WithSegmenter(s prosody.RhythmSegmenter) Option {
	return func(a *Analyzer) { a.segmenter = s }
}

func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

func New(e engine.AcousticEngine, cfg config.AnalysisConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		engine:    e,
		config:    cfg,
		segmenter: prosody.NewRhythmSegmenter(),
		estimator: prosody.NewEmotionEstimator(),
		quality:   prosody.NewVoiceQualityExtractor(e, cfg.PitchFloor),
		logger: logging.WithFields(logging.Fields{
			"component": "prosody_analyzer",
		}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never returns an error: engine failures, panics, timeouts and
// cancellation all produce a failed result. A context that is already done
// fails the call without touching the engine. The engine API is not
// cancellable, so on timeout the abandoned work finishes in the background
// and its result is discarded.
func (a *Analyzer) Analyze(ctx context.Context, path string) *AnalysisResult {
	return a.analyzeWithRelease(ctx, path, nil)
}

// analyzeWithRelease calls release, when set, once the engine is no longer
// working on path, which may be after Analyze has returned on timeout.
func (a *Analyzer) analyzeWithRelease(ctx context.Context, path string, release func()) *AnalysisResult {
	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Analyze",
		"file":     path,
	})

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	var result *AnalysisResult
	if err := ctx.Err(); err != nil {
		if release != nil {
			release()
		}
		result = failedResult(path, a.contextError(err))
	} else {
		done := make(chan *AnalysisResult, 1)
		go func() {
			if release != nil {
				defer release()
			}
			done <- a.analyzeRecovered(path)
		}()

		select {
		case result = <-done:
		case <-ctx.Done():
			result = failedResult(path, a.contextError(ctx.Err()))
		}
	}

	if result.Success {
		logger.Info("Prosody analysis complete", logging.Fields{
			"duration":     result.Duration,
			"arousal":      result.EmotionalProsody.ArousalEstimate,
			"valence":      result.EmotionalProsody.ValenceEstimate,
			"elapsed_time": time.Since(start).String(),
		})
	} else {
		logger.Warn("Prosody analysis failed", logging.Fields{
			"error":        result.Error,
			"elapsed_time": time.Since(start).String(),
		})
	}
	return result
}

func (a *Analyzer) contextError(err error) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if a.timeout > 0 {
		return fmt.Errorf("%w after %s", ErrTimeout, a.timeout)
	}
	return fmt.Errorf("%w: %v", ErrTimeout, err)
}

func (a *Analyzer) analyzeRecovered(path string) (result *AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedResult(path, fmt.Errorf("panic during analysis: %v", r))
		}
	}()

	result, err := a.analyze(path)
	if err != nil {
		return failedResult(path, err)
	}
	return result
}

func (a *Analyzer) analyze(path string) (*AnalysisResult, error) {
	w, err := a.engine.LoadWaveform(path)
	if err != nil {
		return nil, err
	}
	duration := a.engine.TotalDuration(w)

	pitchContour, err := a.engine.PitchContour(w, a.config.PitchFloor, a.config.PitchCeiling, a.config.TimeStep)
	if err != nil {
		return nil, fmt.Errorf("failed to compute pitch contour: %w", err)
	}
	// intensity always uses its automatic hop of 0.8/IntensityMinPitch
	intensityContour, err := a.engine.IntensityContour(w, a.config.IntensityMinPitch, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to compute intensity contour: %w", err)
	}
	pulses, err := a.engine.PeriodicityTrack(w, a.config.PitchFloor, a.config.PitchCeiling)
	if err != nil {
		return nil, fmt.Errorf("failed to compute periodicity track: %w", err)
	}

	var (
		pitch     prosody.PitchSummary
		intensity prosody.IntensitySummary
		rhythm    prosody.RhythmSummary
		quality   prosody.VoiceQualitySummary
	)
	errs := make([]error, 4)

	var wg sync.WaitGroup
	run := func(slot int, name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[slot] = fmt.Errorf("panic in %s extractor: %v", name, r)
				}
			}()
			errs[slot] = fn()
		}()
	}

	run(0, "pitch", func() error {
		pitch = prosody.ExtractPitch(pitchContour.Frequencies)
		return nil
	})
	run(1, "intensity", func() error {
		intensity = prosody.ExtractIntensity(intensityContour.Values)
		return nil
	})
	run(2, "rhythm", func() error {
		rhythm = a.segmenter.Segment(duration, intensityContour.Values).Summary
		return nil
	})
	run(3, "voice quality", func() error {
		var err error
		quality, err = a.quality.Extract(w, pulses)
		return err
	})
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	emotion := a.estimator.Estimate(pitch, intensity, rhythm, quality)

	return &AnalysisResult{
		FilePath:         path,
		Duration:         duration,
		Pitch:            &pitch,
		Intensity:        &intensity,
		Rhythm:           &rhythm,
		VoiceQuality:     &quality,
		EmotionalProsody: &emotion,
		Success:          true,
	}, nil
}
