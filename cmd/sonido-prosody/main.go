package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-prosody/analyzer"
	"github.com/RyanBlaney/sonido-prosody/config"
	"github.com/RyanBlaney/sonido-prosody/engine"
	"github.com/RyanBlaney/sonido-prosody/logging"
	"github.com/RyanBlaney/sonido-prosody/transcode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var configPath string

	root := &cobra.Command{
		Use:          "sonido-prosody",
		Short:        "Prosodic feature extraction and emotional prosody estimation",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.Float64("pitch-floor", 75, "lowest pitch considered, Hz")
	flags.Float64("pitch-ceiling", 500, "highest pitch considered, Hz")
	flags.Float64("time-step", 0, "pitch contour time step in seconds, 0 = automatic")
	flags.Float64("intensity-min-pitch", 100, "minimum pitch for the intensity window, Hz")
	flags.String("format", config.FormatJSON, "output format: json or yaml")
	flags.String("log-level", "info", "log level")
	flags.String("log-backend", logging.BackendZap, "log backend: zap or logrus")
	flags.String("ffmpeg", "ffmpeg", "ffmpeg binary for non-WAV input, empty disables")

	bind(v, flags, map[string]string{
		"analysis.pitch_floor":         "pitch-floor",
		"analysis.pitch_ceiling":       "pitch-ceiling",
		"analysis.time_step":           "time-step",
		"analysis.intensity_min_pitch": "intensity-min-pitch",
		"output.format":                "format",
		"log.level":                    "log-level",
		"log.backend":                  "log-backend",
		"decoder.ffmpeg_path":          "ffmpeg",
	})

	root.AddCommand(newAnalyzeCmd(v, &configPath), newBatchCmd(v, &configPath))
	return root
}

func newAnalyzeCmd(v *viper.Viper, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyse one recording and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(v, *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			result := rt.analyzer.Analyze(cmd.Context(), args[0])
			if err := analyzer.Encode(cmd.OutOrStdout(), result, rt.format); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("analysis of %s failed", args[0])
			}
			return nil
		},
	}
}

func newBatchCmd(v *viper.Viper, configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <input-dir> <output-dir>",
		Short: "Analyse every recording in a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(v, *configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			batch := analyzer.NewBatch(rt.analyzer, rt.config.Batch, rt.format)
			report, err := batch.Run(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	flags := cmd.Flags()
	flags.Int("workers", 0, "concurrent files, 0 = one per CPU")
	flags.Duration("file-timeout", 0, "per-file analysis budget, 0 = none")
	flags.String("suffix", "_analysis", "suffix appended to each output stem")

	bind(v, flags, map[string]string{
		"batch.workers":      "workers",
		"batch.file_timeout": "file-timeout",
		"batch.suffix":       "suffix",
	})
	return cmd
}

type app struct {
	config   *config.Config
	analyzer *analyzer.Analyzer
	format   analyzer.Format
	logger   logging.Logger
}

func setup(v *viper.Viper, configPath string) (*app, error) {
	cfg, err := config.FromViper(v, configPath)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Backend, level)
	if err != nil {
		return nil, err
	}
	logging.SetGlobalLogger(logger)

	format, err := analyzer.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.FFmpegPath = cfg.Decoder.FFmpegPath
	decoderConfig.FFprobePath = cfg.Decoder.FFprobePath
	decoderConfig.TargetSampleRate = cfg.Decoder.TargetSampleRate
	decoder := transcode.NewDecoder(decoderConfig)
	if err := decoder.ValidateConfig(); err != nil {
		return nil, err
	}

	sonar := engine.NewSonar(decoder)
	a := analyzer.New(sonar, cfg.Analysis,
		analyzer.WithTimeout(cfg.Batch.FileTimeout),
		analyzer.WithLogger(logger.WithFields(logging.Fields{"component": "prosody_analyzer"})),
	)

	logger.Debug("Configuration loaded", logging.Fields{
		"config_file": configPath,
		"format":      string(format),
		"backend":     cfg.Log.Backend,
		"formats":     decoder.GetSupportedFormats(),
	})

	return &app{config: cfg, analyzer: a, format: format, logger: logger}, nil
}

func (r *app) close() {
	if s, ok := r.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

func bind(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
