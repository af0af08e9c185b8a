package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-prosody/algorithms/common"
	"github.com/RyanBlaney/sonido-prosody/logging"
)

// ErrUnsupportedFormat is returned for inputs the decoder cannot read
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// wavFormatPCM is the RIFF format tag for integer PCM
const wavFormatPCM = 1

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64      `json:"-"` // Mono PCM in [-1, 1]
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"` // Channels of the source before mixdown
	Duration   time.Duration  `json:"duration"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata holds the properties of the source file
type AudioMetadata struct {
	Path       string  `json:"path"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth,omitempty"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate,omitempty"`
	Format     string  `json:"format"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"` // 0 keeps the source rate
	FFmpegPath       string        `json:"ffmpeg_path"`        // Empty disables the ffmpeg fallback
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 0,
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		Timeout:          30 * time.Second,
	}
}

// Decoder turns audio files into mono float64 PCM. WAV files are read
// natively; anything else goes through ffmpeg when it is configured.
type Decoder struct {
	config    *DecoderConfig
	resampler *common.Interpolator
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config:    config,
		resampler: common.NewInterpolator(common.Lanczos),
	}
}

// DecodeFile decodes an audio file and returns mono PCM data
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	logger.Debug("Starting audio file decode")

	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		data, err := d.decodeWAVFile(filename)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, errNonPCM) || d.config.FFmpegPath == "" {
			logger.Debug("WAV decode failed", logging.Fields{"error": err.Error()})
			return nil, err
		}
		logger.Debug("WAV is not integer PCM, falling back to ffmpeg")
	}

	if d.config.FFmpegPath == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	metadata, err := d.probeAudioFile(filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	return d.decodeFileWithFFmpeg(filename, metadata)
}

var errNonPCM = fmt.Errorf("%w: WAV is not integer PCM", ErrUnsupportedFormat)

func (d *Decoder) decodeWAVFile(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	data, err := d.DecodeWAV(f)
	if err != nil {
		return nil, err
	}
	data.Metadata.Path = filename
	return data, nil
}

// DecodeWAV reads an integer PCM WAV stream, mixes it down to mono and
// resamples it when a target rate is configured
func (d *Decoder) DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, errNonPCM
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing WAV format chunk", ErrUnsupportedFormat)
	}

	bitDepth := int(dec.BitDepth)
	samples := mixdown(buf, bitDepth)
	sampleRate := buf.Format.SampleRate

	if d.config.TargetSampleRate > 0 && d.config.TargetSampleRate != sampleRate {
		samples = d.resampler.ResampleSignal(samples, sampleRate, d.config.TargetSampleRate)
		sampleRate = d.config.TargetSampleRate
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   buf.Format.NumChannels,
		Duration:   duration,
		Timestamp:  time.Now(),
		Metadata: &AudioMetadata{
			SampleRate: buf.Format.SampleRate,
			Channels:   buf.Format.NumChannels,
			BitDepth:   bitDepth,
			Codec:      "pcm",
			Duration:   float64(len(buf.Data)/buf.Format.NumChannels) / float64(buf.Format.SampleRate),
			Format:     "wav",
		},
	}, nil
}

// mixdown averages interleaved channels and scales integers to [-1, 1]
func mixdown(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels

	var offset, scale float64
	switch {
	case bitDepth == 8:
		// 8-bit WAV is unsigned
		offset, scale = 128, 128
	case bitDepth > 0:
		scale = float64(int64(1) << (bitDepth - 1))
	default:
		scale = 32768
	}

	samples := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += (float64(buf.Data[i*channels+c]) - offset) / scale
		}
		samples[i] = sum / float64(channels)
	}
	return samples
}

// WriteWAV encodes mono samples in [-1, 1] as 16-bit PCM
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, wavFormatPCM)

	intData := make([]int, len(samples))
	for i, s := range samples {
		intData[i] = int(math.Round(common.Clamp(s, -1, 1) * 32767.0))
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           intData,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	return nil
}

// probeAudioFile uses ffprobe to get audio information from a file
func (d *Decoder) probeAudioFile(filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	ctx, cancel := d.commandContext()
	defer cancel()

	output, err := exec.CommandContext(ctx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%w: ffprobe failed: %v, stderr: %s", ErrUnsupportedFormat, err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	metadata, err := d.parseFFprobeOutput(output)
	if err != nil {
		return nil, err
	}
	metadata.Path = filename
	return metadata, nil
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func (d *Decoder) parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("%w: no audio streams found", ErrUnsupportedFormat)
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("%w: stream is not audio type: %s", ErrUnsupportedFormat, stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// decodeFileWithFFmpeg decodes any ffmpeg-readable file to mono f64le
func (d *Decoder) decodeFileWithFFmpeg(filename string, metadata *AudioMetadata) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "decodeFileWithFFmpeg",
		"filename":  filename,
	})

	sampleRate := metadata.SampleRate
	if d.config.TargetSampleRate > 0 {
		sampleRate = d.config.TargetSampleRate
	}

	args := []string{
		"-v", "error",
		"-i", filename,
		"-vn",
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	}

	ctx, cancel := d.commandContext()
	defer cancel()

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := exec.CommandContext(ctx, d.config.FFmpegPath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	duration := time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)

	logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"output_samples":     len(samples),
		"output_sample_rate": sampleRate,
		"output_duration":    duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   metadata.Channels,
		Duration:   duration,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}, nil
}

func (d *Decoder) commandContext() (context.Context, context.CancelFunc) {
	if d.config.Timeout > 0 {
		return context.WithTimeout(context.Background(), d.config.Timeout)
	}
	return context.WithCancel(context.Background())
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate < 0 {
		return fmt.Errorf("target sample rate must not be negative: %d", d.config.TargetSampleRate)
	}
	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}
	return nil
}

// GetSupportedFormats returns the file extensions this decoder can read
func (d *Decoder) GetSupportedFormats() []string {
	if d.config.FFmpegPath == "" {
		return []string{"wav"}
	}
	return []string{
		"wav", "aac", "mp3", "flac", "ogg", "opus", "m4a", "wma", "webm",
		// FFmpeg supports many more formats
	}
}
