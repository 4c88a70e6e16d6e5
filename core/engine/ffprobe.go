package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFprobe reads stream metadata with ffprobe.
type FFprobe struct {
	path string
}

// NewFFprobe derives the ffprobe binary from the configured ffmpeg path.
func NewFFprobe(ffmpegPath string) *FFprobe {
	return &FFprobe{path: strings.Replace(ffmpegPath, "ffmpeg", "ffprobe", 1)}
}

// Details is the header information reported for an audio file.
type Details struct {
	Codec      string  `json:"codec"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	BitRate    int     `json:"bitRate"`
	Duration   float64 `json:"duration"`
}

type ffprobeOutput struct {
	Streams []struct {
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

func (p *FFprobe) run(ctx context.Context, inputFile string) (*ffprobeOutput, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name,sample_rate,channels:format=duration,bit_rate",
		"-of", "json",
		inputFile,
	}

	cmd := exec.CommandContext(ctx, p.path, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", inputFile, err, stderr.String())
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ffprobe output for %s: %w\nFFprobe Output: %s", inputFile, err, out.String())
	}
	return &probe, nil
}

// ProbeDuration returns the duration of inputFile in seconds.
func (p *FFprobe) ProbeDuration(ctx context.Context, inputFile string) (float64, error) {
	probe, err := p.run(ctx, inputFile)
	if err != nil {
		return 0, err
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("duration not found in ffprobe output for %s", inputFile)
	}
	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration string %q for %s: %w", probe.Format.Duration, inputFile, err)
	}
	return duration, nil
}

// Details returns the first audio stream's header information.
func (p *FFprobe) Details(ctx context.Context, inputFile string) (Details, error) {
	probe, err := p.run(ctx, inputFile)
	if err != nil {
		return Details{}, err
	}
	return probe.details(inputFile)
}

// details validates the probe output. Bit rate is optional since ffprobe
// reports "N/A" for some containers.
func (o *ffprobeOutput) details(inputFile string) (Details, error) {
	if len(o.Streams) == 0 {
		return Details{}, fmt.Errorf("no audio streams found in %s", inputFile)
	}
	s := o.Streams[0]
	d := Details{Codec: s.CodecName, Channels: s.Channels}

	var err error
	if d.SampleRate, err = strconv.Atoi(s.SampleRate); err != nil {
		return Details{}, fmt.Errorf("failed to parse sample rate %q for %s: %w", s.SampleRate, inputFile, err)
	}
	if d.Duration, err = strconv.ParseFloat(o.Format.Duration, 64); err != nil {
		return Details{}, fmt.Errorf("failed to parse duration string %q for %s: %w", o.Format.Duration, inputFile, err)
	}
	if br := o.Format.BitRate; br != "" && br != "N/A" {
		if d.BitRate, err = strconv.Atoi(br); err != nil {
			return Details{}, fmt.Errorf("failed to parse bit rate %q for %s: %w", br, inputFile, err)
		}
	}
	return d, nil
}
