// Package config holds the runtime settings of the prosody analyzer and
// loads them from defaults, an optional YAML file and SONIDO_* variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-prosody/logging"
)

// EnvPrefix is prepended to every environment override, e.g.
// SONIDO_ANALYSIS_PITCH_FLOOR or SONIDO_BATCH_WORKERS.
const EnvPrefix = "SONIDO"

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis" json:"analysis"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch" json:"batch"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Log      LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
	Decoder  DecoderConfig  `mapstructure:"decoder" yaml:"decoder" json:"decoder"`
}

// AnalysisConfig is the acoustic parameter surface passed to the engine
type AnalysisConfig struct {
	PitchFloor        float64 `mapstructure:"pitch_floor" yaml:"pitch_floor" json:"pitch_floor"`       // Hz
	PitchCeiling      float64 `mapstructure:"pitch_ceiling" yaml:"pitch_ceiling" json:"pitch_ceiling"` // Hz
	TimeStep          float64 `mapstructure:"time_step" yaml:"time_step" json:"time_step"`             // pitch step in seconds, 0 = automatic
	IntensityMinPitch float64 `mapstructure:"intensity_min_pitch" yaml:"intensity_min_pitch" json:"intensity_min_pitch"`
}

type BatchConfig struct {
	Workers     int           `mapstructure:"workers" yaml:"workers" json:"workers"` // 0 = one per CPU
	FileTimeout time.Duration `mapstructure:"file_timeout" yaml:"file_timeout" json:"file_timeout"`
	Extension   string        `mapstructure:"extension" yaml:"extension" json:"extension"`
	Suffix      string        `mapstructure:"suffix" yaml:"suffix" json:"suffix"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "json", "yaml"
}

type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level" json:"level"`
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"` // "zap", "logrus"
}

type DecoderConfig struct {
	FFmpegPath       string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath      string `mapstructure:"ffprobe_path" yaml:"ffprobe_path" json:"ffprobe_path"`
	TargetSampleRate int    `mapstructure:"target_sample_rate" yaml:"target_sample_rate" json:"target_sample_rate"`
}

// DefaultAnalysisConfig returns the standard speech analysis range
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		PitchFloor:        75,
		PitchCeiling:      500,
		TimeStep:          0,
		IntensityMinPitch: 100,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Analysis: DefaultAnalysisConfig(),
		Batch: BatchConfig{
			Workers:     0,
			FileTimeout: 0,
			Extension:   ".wav",
			Suffix:      "_analysis",
		},
		Output: OutputConfig{Format: FormatJSON},
		Log: LogConfig{
			Level:   "info",
			Backend: logging.BackendZap,
		},
		Decoder: DecoderConfig{
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
			TargetSampleRate: 0,
		},
	}
}

// NewViper returns a viper instance carrying every default and the
// environment binding, ready for flags to be bound on top.
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("analysis.pitch_floor", d.Analysis.PitchFloor)
	v.SetDefault("analysis.pitch_ceiling", d.Analysis.PitchCeiling)
	v.SetDefault("analysis.time_step", d.Analysis.TimeStep)
	v.SetDefault("analysis.intensity_min_pitch", d.Analysis.IntensityMinPitch)

	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.file_timeout", d.Batch.FileTimeout)
	v.SetDefault("batch.extension", d.Batch.Extension)
	v.SetDefault("batch.suffix", d.Batch.Suffix)

	v.SetDefault("output.format", d.Output.Format)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.backend", d.Log.Backend)

	v.SetDefault("decoder.ffmpeg_path", d.Decoder.FFmpegPath)
	v.SetDefault("decoder.ffprobe_path", d.Decoder.FFprobePath)
	v.SetDefault("decoder.target_sample_rate", d.Decoder.TargetSampleRate)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads defaults, the optional YAML file at path and the environment
func Load(path string) (*Config, error) {
	return FromViper(NewViper(), path)
}

// FromViper decodes and validates the settings held by v. A non-empty path
// is read as a config file first.
func FromViper(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting outside its allowed range
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: batch.workers must not be negative: %d", ErrInvalidConfig, c.Batch.Workers)
	}
	if c.Batch.FileTimeout < 0 {
		return fmt.Errorf("%w: batch.file_timeout must not be negative: %s", ErrInvalidConfig, c.Batch.FileTimeout)
	}
	if !strings.HasPrefix(c.Batch.Extension, ".") || len(c.Batch.Extension) < 2 {
		return fmt.Errorf("%w: batch.extension must look like \".wav\": %q", ErrInvalidConfig, c.Batch.Extension)
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: output.format must be json or yaml: %q", ErrInvalidConfig, c.Output.Format)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Backend) {
	case "", logging.BackendZap, logging.BackendLogrus:
	default:
		return fmt.Errorf("%w: log.backend must be zap or logrus: %q", ErrInvalidConfig, c.Log.Backend)
	}

	if c.Decoder.TargetSampleRate < 0 {
		return fmt.Errorf("%w: decoder.target_sample_rate must not be negative: %d", ErrInvalidConfig, c.Decoder.TargetSampleRate)
	}
	return nil
}

func (a AnalysisConfig) Validate() error {
	if a.PitchFloor <= 0 {
		return fmt.Errorf("%w: analysis.pitch_floor must be positive: %.2f", ErrInvalidConfig, a.PitchFloor)
	}
	if a.PitchCeiling <= a.PitchFloor {
		return fmt.Errorf("%w: analysis.pitch_ceiling %.2f must exceed pitch_floor %.2f", ErrInvalidConfig, a.PitchCeiling, a.PitchFloor)
	}
	if a.TimeStep < 0 {
		return fmt.Errorf("%w: analysis.time_step must not be negative: %.4f", ErrInvalidConfig, a.TimeStep)
	}
	if a.IntensityMinPitch <= 0 {
		return fmt.Errorf("%w: analysis.intensity_min_pitch must be positive: %.2f", ErrInvalidConfig, a.IntensityMinPitch)
	}
	return nil
}
