package analyzer

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-prosody/prosody"
)

func successResult() *AnalysisResult {
	return &AnalysisResult{
		FilePath:         "empty.wav",
		Duration:         0,
		Pitch:            &prosody.PitchSummary{},
		Intensity:        &prosody.IntensitySummary{},
		Rhythm:           &prosody.RhythmSummary{},
		VoiceQuality:     &prosody.VoiceQualitySummary{UndefinedMetrics: []string{prosody.MetricHNRMean}},
		EmotionalProsody: &prosody.EmotionalProsodySummary{VoiceQualityRating: prosody.QualityBreathy},
		Success:          true,
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, " YAML ": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatal("expected error for csv")
	}
	if FormatJSON.Extension() != ".json" || FormatYAML.Extension() != ".yaml" {
		t.Fatal("unexpected extensions")
	}
}

func TestEncodeJSONKeepsZeroDurationOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, successResult(), FormatJSON); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"duration": 0`) {
		t.Fatalf("success record must keep duration:\n%s", out)
	}
	if !strings.Contains(out, "\n  \"file_path\"") {
		t.Fatalf("expected two-space indentation:\n%s", out)
	}
	if !strings.Contains(out, `"undefined_metrics": [`) || strings.Contains(out, `"error"`) {
		t.Fatalf("unexpected layout:\n%s", out)
	}
}

func TestEncodeYAMLFailureLayout(t *testing.T) {
	var buf bytes.Buffer
	result := failedResult("bad.wav", errors.New("not a wav file"))
	if err := Encode(&buf, result, FormatYAML); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 3 || decoded["success"] != false || decoded["file_path"] != "bad.wav" || decoded["error"] != "not a wav file" {
		t.Fatalf("failure record = %v", decoded)
	}
}

func TestEncodeYAMLSuccessLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, successResult(), FormatYAML); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	emotion, ok := decoded["emotional_prosody"].(map[string]any)
	if !ok || emotion["voice_quality_rating"] != "breathy" {
		t.Fatalf("emotional_prosody = %v", decoded["emotional_prosody"])
	}
	if _, ok := decoded["error"]; ok {
		t.Fatal("success record carries an error key")
	}
}

func TestWriteFileFailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "x_analysis.json")
	if err := WriteFile(path, successResult(), FormatJSON); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}
