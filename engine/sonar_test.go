package engine

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-prosody/algorithms/speech"
	"github.com/RyanBlaney/sonido-prosody/algorithms/temporal"
	"github.com/RyanBlaney/sonido-prosody/transcode"
)

const testRate = 16000

func newTestSonar() *Sonar {
	config := transcode.DefaultDecoderConfig()
	config.FFmpegPath = ""
	return NewSonar(transcode.NewDecoder(config))
}

func writeWAV(t *testing.T, name string, samples []float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := transcode.WriteWAV(f, samples, testRate); err != nil {
		t.Fatal(err)
	}
	return path
}

func toneSamples(freq, seconds, amplitude float64) []float64 {
	out := make([]float64, int(seconds*testRate))
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

func TestSonarPureTone(t *testing.T) {
	s := newTestSonar()
	w, err := s.LoadWaveform(writeWAV(t, "tone.wav", toneSamples(200, 2.0, 0.5)))
	if err != nil {
		t.Fatalf("LoadWaveform: %v", err)
	}
	if got := s.TotalDuration(w); got != 2.0 {
		t.Fatalf("duration = %v, want 2", got)
	}
	if len(s.RawSamples(w)) != 2*testRate {
		t.Fatalf("samples = %d", len(s.RawSamples(w)))
	}

	pitch, err := s.PitchContour(w, 75, 500, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pitch.TimeStep != 0.01 || len(pitch.Frequencies) == 0 {
		t.Fatalf("pitch contour: step %v, %d frames", pitch.TimeStep, len(pitch.Frequencies))
	}
	for i, f := range pitch.Frequencies {
		if math.Abs(f-200) > 0.5 {
			t.Fatalf("frame %d: %.3f Hz", i, f)
		}
	}

	intensity, err := s.IntensityContour(w, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	first := intensity.Values[0]
	for i, v := range intensity.Values {
		if math.IsNaN(v) || math.Abs(v-first) > 0.01 {
			t.Fatalf("intensity frame %d = %v, first = %v", i, v, first)
		}
	}

	pp, err := s.PeriodicityTrack(w, 75, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(pp.Times) < 300 {
		t.Fatalf("only %d pulses in 2 s of 200 Hz", len(pp.Times))
	}

	params := DefaultPerturbationParams()
	jitter, err := s.JitterLocal(pp, params)
	if err != nil || math.IsNaN(jitter) || jitter > 0.001 {
		t.Fatalf("jitter = %v, err = %v", jitter, err)
	}
	shimmer, err := s.ShimmerLocal(w, pp, params)
	if err != nil || math.IsNaN(shimmer) || shimmer > 0.01 {
		t.Fatalf("shimmer = %v, err = %v", shimmer, err)
	}
	hnr, err := s.HarmonicsToNoiseMean(w, DefaultHarmonicityParams(75))
	if err != nil || hnr < 30 {
		t.Fatalf("hnr = %v, err = %v", hnr, err)
	}
}

func sameStatistic(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func TestSonarPassesParamsToSpeechAnalyzers(t *testing.T) {
	s := newTestSonar()
	w, err := s.LoadWaveform(writeWAV(t, "tone.wav", toneSamples(200, 1, 0.5)))
	if err != nil {
		t.Fatal(err)
	}
	pp, err := s.PeriodicityTrack(w, 75, 500)
	if err != nil {
		t.Fatal(err)
	}

	tight := speech.DefaultPerturbationParams()
	tight.LongestPeriod = 0.004

	tests := []struct {
		name         string
		perturbation PerturbationParams
		harmonicity  HarmonicityParams
	}{
		{"defaults", DefaultPerturbationParams(), DefaultHarmonicityParams(75)},
		{"periods excluded", tight, speech.DefaultHarmonicityParams(150)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vqa := speech.NewVoiceQualityAnalyzer(testRate)

			jitter, _ := s.JitterLocal(pp, tt.perturbation)
			if want := speech.JitterLocal(pp.Times, tt.perturbation); !sameStatistic(jitter, want) {
				t.Fatalf("jitter = %v, want %v", jitter, want)
			}
			shimmer, _ := s.ShimmerLocal(w, pp, tt.perturbation)
			if want := vqa.ShimmerLocal(w.Samples, pp.Times, tt.perturbation); !sameStatistic(shimmer, want) {
				t.Fatalf("shimmer = %v, want %v", shimmer, want)
			}
			hnr, err := s.HarmonicsToNoiseMean(w, tt.harmonicity)
			want, wantErr := vqa.HarmonicsToNoise(w.Samples, tt.harmonicity)
			if (err == nil) != (wantErr == nil) || !sameStatistic(hnr, want) {
				t.Fatalf("hnr = %v (%v), want %v (%v)", hnr, err, want, wantErr)
			}
		})
	}

	if j, _ := s.JitterLocal(pp, tight); !Undefined(j) {
		t.Fatalf("jitter with every period excluded = %v, want undefined", j)
	}
}

func TestSonarSilence(t *testing.T) {
	s := newTestSonar()
	w, err := s.LoadWaveform(writeWAV(t, "silence.wav", make([]float64, testRate)))
	if err != nil {
		t.Fatal(err)
	}

	pitch, err := s.PitchContour(w, 75, 500, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range pitch.Frequencies {
		if f != 0 {
			t.Fatalf("frame %d voiced in silence: %v", i, f)
		}
	}

	intensity, err := s.IntensityContour(w, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range intensity.Values {
		if v != temporal.SilenceFloorDB {
			t.Fatalf("intensity frame %d = %v, want the %v dB floor", i, v, temporal.SilenceFloorDB)
		}
	}

	pp, err := s.PeriodicityTrack(w, 75, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(pp.Times) != 0 {
		t.Fatalf("%d pulses in silence", len(pp.Times))
	}
	if j, _ := s.JitterLocal(pp, DefaultPerturbationParams()); !Undefined(j) {
		t.Fatalf("jitter = %v, want NaN", j)
	}
	if h, _ := s.HarmonicsToNoiseMean(w, DefaultHarmonicityParams(75)); !Undefined(h) {
		t.Fatalf("hnr = %v, want NaN", h)
	}
}

func TestSonarErrors(t *testing.T) {
	s := newTestSonar()

	if _, err := s.PitchContour(nil, 75, 500, 0); !errors.Is(err, ErrEmptyWaveform) {
		t.Fatalf("nil waveform: err = %v", err)
	}
	if _, err := s.IntensityContour(&Waveform{}, 100, 0); !errors.Is(err, ErrEmptyWaveform) {
		t.Fatalf("rate-less waveform: err = %v", err)
	}

	path := filepath.Join(t.TempDir(), "corrupt.wav")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadWaveform(path); !errors.Is(err, transcode.ErrUnsupportedFormat) {
		t.Fatalf("corrupt file: err = %v", err)
	}

	w := &Waveform{Samples: make([]float64, 100), SampleRate: testRate}
	if _, err := s.PitchContour(w, 500, 75, 0); err == nil {
		t.Fatal("expected error for inverted pitch range")
	}
}
