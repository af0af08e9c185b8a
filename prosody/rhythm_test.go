package prosody

import (
	"math"
	"math/rand"
	"testing"
)

func TestRhythmOpenPauseIsNotCounted(t *testing.T) {
	// mean = 550/9, threshold ~51.1: frames 3-4 close a pause, 7-8 stay open
	intensity := []float64{70, 70, 70, 50, 50, 70, 70, 50, 50}

	analysis := NewRhythmSegmenter().Segment(9, intensity)
	got := analysis.Summary

	if got.PauseCount != 1 {
		t.Fatalf("pause_count = %d, want 1", got.PauseCount)
	}
	if got.TotalPauseTime != 2 || got.MeanPauseDuration != 2 {
		t.Fatalf("pause time = %v (mean %v), want 2", got.TotalPauseTime, got.MeanPauseDuration)
	}
	if got.SpeakingTime != 7 {
		t.Fatalf("speaking_time = %v, want 7", got.SpeakingTime)
	}
	if len(analysis.Segments) != 1 || analysis.Segments[0].Start != 3 || analysis.Segments[0].End() != 5 {
		t.Fatalf("segments = %+v, want one pause [3, 5)", analysis.Segments)
	}
}

func TestRhythmSpeakingTimeIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	segmenter := NewRhythmSegmenter()

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(300)
		intensity := make([]float64, n)
		for i := range intensity {
			switch rng.Intn(10) {
			case 0:
				intensity[i] = math.NaN()
			case 1, 2, 3:
				intensity[i] = 30 + rng.Float64()*10
			default:
				intensity[i] = 60 + rng.Float64()*20
			}
		}
		total := rng.Float64() * 30

		got := segmenter.Segment(total, intensity).Summary
		if got.SpeakingTime != got.TotalDuration-got.TotalPauseTime {
			t.Fatalf("trial %d: speaking %v != total %v - pause %v", trial, got.SpeakingTime, got.TotalDuration, got.TotalPauseTime)
		}
		if got.TotalDuration != total {
			t.Fatalf("trial %d: total_duration = %v, want %v", trial, got.TotalDuration, total)
		}
		if got.PauseCount < 0 || got.TotalPauseTime < 0 {
			t.Fatalf("trial %d: negative pause statistics %+v", trial, got)
		}
		if got.TotalPauseTime > 0 && got.SpeechRate > 0 && got.ArticulationRate < got.SpeechRate {
			t.Fatalf("trial %d: articulation %v < speech %v", trial, got.ArticulationRate, got.SpeechRate)
		}
	}
}

func TestRhythmNaNFramesAreNeverPause(t *testing.T) {
	nan := math.NaN()
	// NaN frames stretch the frame duration but never open or extend a pause
	intensity := []float64{70, nan, 40, 70, nan, 70, 40, nan, 70}

	analysis := NewRhythmSegmenter().Segment(9, intensity)
	if analysis.Summary.PauseCount != 2 {
		t.Fatalf("pause_count = %d, want 2", analysis.Summary.PauseCount)
	}
	for _, p := range analysis.Segments {
		if p.Duration != 1 {
			t.Fatalf("pause %+v, want one frame of 1 s", p)
		}
	}

	none := NewRhythmSegmenter().Segment(3, []float64{nan, nan, nan}).Summary
	if none.PauseCount != 0 || none.SpeechRate != 0 || none.SpeakingTime != 3 {
		t.Fatalf("all-NaN contour = %+v", none)
	}
}

func TestRhythmSyllablePeaks(t *testing.T) {
	intensity := []float64{60, 70, 60, 60, 60, 60, 70, 60, 62, 60}

	analysis := NewRhythmSegmenter().Segment(10, intensity)
	// peaks at 1 and 6 are five frames apart; 8 is too close to 6
	if len(analysis.SyllablePeaks) != 2 || analysis.SyllablePeaks[0] != 1 || analysis.SyllablePeaks[1] != 6 {
		t.Fatalf("peaks = %v, want [1 6]", analysis.SyllablePeaks)
	}
	if analysis.Summary.SpeechRate != 0.2 {
		t.Fatalf("speech_rate = %v, want 0.2", analysis.Summary.SpeechRate)
	}

	nan := math.NaN()
	withGaps := NewRhythmSegmenter().Segment(10, []float64{60, nan, 70, nan, 60})
	if len(withGaps.SyllablePeaks) != 1 || withGaps.SyllablePeaks[0] != 1 {
		t.Fatalf("peaks over valid values = %v, want [1]", withGaps.SyllablePeaks)
	}
}

func TestRhythmZeroDuration(t *testing.T) {
	got := NewRhythmSegmenter().Segment(0, []float64{60, 70, 60}).Summary
	if got.SpeechRate != 0 || got.ArticulationRate != 0 || got.SpeakingTime != 0 {
		t.Fatalf("zero duration = %+v, want zero rates", got)
	}

	empty := NewRhythmSegmenter().Segment(2, nil).Summary
	if empty.PauseCount != 0 || empty.SpeakingTime != 2 || empty.SpeechRate != 0 {
		t.Fatalf("empty contour = %+v", empty)
	}
}
