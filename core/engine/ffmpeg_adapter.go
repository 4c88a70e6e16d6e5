package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"Tracksmith/logger"
)

const (
	blankSampleRate = 44100
	outputCodec     = "pcm_s16le"
)

// detailer is the subset of FFprobe the ffmpeg adapter depends on.
type detailer interface {
	Details(ctx context.Context, path string) (Details, error)
}

// FFmpegAdapter implements the engine protocol with ffmpeg filters. Every
// edit renders into a sibling temp file that then replaces the target.
type FFmpegAdapter struct {
	ffmpegPath string
	probe      detailer
}

// NewFFmpegAdapter creates a new FFmpegAdapter.
func NewFFmpegAdapter(ffmpegPath string) *FFmpegAdapter {
	return &FFmpegAdapter{ffmpegPath: ffmpegPath, probe: NewFFprobe(ffmpegPath)}
}

// FFmpegPath returns the configured ffmpeg binary.
func (a *FFmpegAdapter) FFmpegPath() string {
	return a.ffmpegPath
}

// ffmpegJob is one ffmpeg invocation minus the output path.
type ffmpegJob struct {
	inputs [][]string // per input: options followed by "-i", path
	args   []string   // filters and output options
}

func (j ffmpegJob) commandLine(output string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, in := range j.inputs {
		args = append(args, in...)
	}
	args = append(args, j.args...)
	args = append(args, "-c:a", outputCodec, output)
	return args
}

func input(path string, opts ...string) []string {
	return append(opts, "-i", path)
}

func (a *FFmpegAdapter) Execute(ctx context.Context, cmd EditCommand) error {
	if cmd.Code == CodeDetails {
		d, err := a.probe.Details(ctx, cmd.TargetPath)
		if err != nil {
			return &EngineError{Command: cmd, Err: err}
		}
		logger.Info("audio details",
			logger.String("path", cmd.TargetPath),
			logger.String("codec", d.Codec),
			logger.Int("sampleRate", d.SampleRate),
			logger.Int("channels", d.Channels),
			logger.Int("bitRate", d.BitRate),
			logger.Float64("duration", d.Duration))
		return nil
	}

	job, err := a.plan(ctx, cmd)
	if err != nil {
		return &EngineError{Command: cmd, Err: err}
	}
	if err := a.render(ctx, cmd.TargetPath, job); err != nil {
		return &EngineError{Command: cmd, Err: err}
	}
	return nil
}

func param(cmd EditCommand, i int) (string, error) {
	if i >= len(cmd.Params) {
		return "", fmt.Errorf("missing parameter %d", i+1)
	}
	return cmd.Params[i], nil
}

func floatParam(cmd EditCommand, i int) (float64, error) {
	s, err := param(cmd, i)
	if err != nil {
		return 0, err
	}
	f, err := ParseFloat(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parameter %d: invalid number %q", i+1, s)
	}
	return f, nil
}

// plan translates a command into an ffmpeg job.
func (a *FFmpegAdapter) plan(ctx context.Context, cmd EditCommand) (ffmpegJob, error) {
	target := cmd.TargetPath

	switch cmd.Code {
	case CodeCreateBlank:
		secs, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		if secs <= 0 {
			return ffmpegJob{}, fmt.Errorf("blank length must be positive, got %v", secs)
		}
		src := fmt.Sprintf("anullsrc=r=%d:cl=stereo", blankSampleRate)
		return ffmpegJob{inputs: [][]string{input(src, "-f", "lavfi", "-t", FormatFloat(secs))}}, nil

	case CodeLoop:
		n, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		if n < 1 {
			return ffmpegJob{}, fmt.Errorf("loop count must be at least 1, got %v", n)
		}
		return ffmpegJob{inputs: [][]string{input(target, "-stream_loop", strconv.Itoa(int(n)-1))}}, nil

	case CodeTrim:
		ms, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		part, err := floatParam(cmd, 1)
		if err != nil {
			return ffmpegJob{}, err
		}
		at := FormatFloat(math.Max(ms, 0) / 1000)
		switch int(part) {
		case 1:
			return ffmpegJob{inputs: [][]string{input(target)}, args: []string{"-t", at}}, nil
		case 2:
			return ffmpegJob{inputs: [][]string{input(target, "-ss", at)}}, nil
		default:
			return ffmpegJob{}, fmt.Errorf("trim part must be 1 or 2, got %v", part)
		}

	case CodeClipGain:
		factor, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		return filterJob(target, "volume="+FormatFloat(factor)), nil

	case CodeFrequencyScaling:
		factor, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		if factor <= 0 {
			return ffmpegJob{}, fmt.Errorf("frequency factor must be positive, got %v", factor)
		}
		d, err := a.probe.Details(ctx, target)
		if err != nil {
			return ffmpegJob{}, err
		}
		rate := d.SampleRate
		if rate <= 0 {
			rate = blankSampleRate
		}
		scaled := int(math.Round(float64(rate) * factor))
		return filterJob(target, fmt.Sprintf("asetrate=%d,aresample=%d", scaled, rate)), nil

	case CodeTimeScaling:
		ms, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		if ms <= 0 {
			return ffmpegJob{}, fmt.Errorf("target duration must be positive, got %v", ms)
		}
		d, err := a.probe.Details(ctx, target)
		if err != nil {
			return ffmpegJob{}, err
		}
		if d.Duration <= 0 {
			return ffmpegJob{}, errors.New("source has no measurable duration")
		}
		return filterJob(target, atempoChain(d.Duration/(ms/1000))), nil

	case CodeCompressing:
		thresholdDB, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		ratio, err := floatParam(cmd, 1)
		if err != nil {
			return ffmpegJob{}, err
		}
		linear := clamp(math.Pow(10, thresholdDB/20), 0.000976563, 1)
		return filterJob(target, fmt.Sprintf("acompressor=threshold=%s:ratio=%s",
			FormatFloat(linear), FormatFloat(clamp(ratio, 1, 20)))), nil

	case CodePitchFilter:
		cutoff, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		kind, err := param(cmd, 1)
		if err != nil {
			return ffmpegJob{}, err
		}
		switch strings.ToUpper(strings.TrimSpace(kind)) {
		case "H":
			return filterJob(target, "highpass=f="+FormatFloat(cutoff)), nil
		case "L":
			return filterJob(target, "lowpass=f="+FormatFloat(cutoff)), nil
		default:
			return ffmpegJob{}, fmt.Errorf("invalid filter type %q", kind)
		}

	case CodeNormalize:
		return filterJob(target, "loudnorm"), nil

	case CodeReverb:
		level, err := floatParam(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		preset, ok := reverbPresets[int(level)]
		if !ok {
			return ffmpegJob{}, fmt.Errorf("reverb level must be 1, 2 or 3, got %v", level)
		}
		return filterJob(target, preset), nil

	case CodeSuperimpose:
		overlay, err := param(cmd, 0)
		if err != nil {
			return ffmpegJob{}, err
		}
		offset, err := floatParam(cmd, 1)
		if err != nil {
			return ffmpegJob{}, err
		}
		delayMs := int(math.Round(math.Max(offset, 0) * 1000))
		graph := fmt.Sprintf("[1:a]adelay=%d:all=1[d];[0:a][d]amix=inputs=2:duration=first:dropout_transition=0:normalize=0", delayMs)
		return ffmpegJob{
			inputs: [][]string{input(target), input(overlay)},
			args:   []string{"-filter_complex", graph},
		}, nil
	}

	return ffmpegJob{}, fmt.Errorf("unsupported operation code %d", cmd.Code)
}

var reverbPresets = map[int]string{
	1: "aecho=0.8:0.6:40:0.3",
	2: "aecho=0.8:0.7:60|120:0.4|0.25",
	3: "aecho=0.8:0.8:80|160|240:0.5|0.35|0.2",
}

func filterJob(target, filter string) ffmpegJob {
	return ffmpegJob{inputs: [][]string{input(target)}, args: []string{"-af", filter}}
}

// atempoChain splits a tempo factor into atempo stages inside [0.5, 2].
func atempoChain(tempo float64) string {
	var stages []string
	for tempo > 2 {
		stages = append(stages, "atempo=2.0")
		tempo /= 2
	}
	for tempo < 0.5 {
		stages = append(stages, "atempo=0.5")
		tempo /= 0.5
	}
	stages = append(stages, "atempo="+strconv.FormatFloat(tempo, 'f', 6, 64))
	return strings.Join(stages, ",")
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// render runs the job into a temp file beside target and swaps it in.
func (a *FFmpegAdapter) render(ctx context.Context, target string, job ffmpegJob) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(target), filepath.Ext(target))+"-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := job.commandLine(tmpPath)
	c := exec.CommandContext(ctx, a.ffmpegPath, args...)
	var stderr bytes.Buffer
	c.Stderr = &stderr

	logger.Debug("executing ffmpeg command", logger.String("args", strings.Join(args, " ")))

	if err := c.Run(); err != nil {
		return fmt.Errorf("ffmpeg execution failed for %s: %w\nFFmpeg Error: %s", target, err, stderr.String())
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}
