package timeline

import (
	"context"
	"os"
	"path/filepath"

	"Tracksmith/logger"
)

// AudioAsset references a source audio file. It is a value type: copying it
// yields an independent wrapper around the same file.
type AudioAsset struct {
	DisplayName     string  `json:"displayName"`
	SourcePath      string  `json:"sourcePath"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// DurationProber reports the playable length of an audio file in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// NewAudioAsset computes the duration once. A missing or unreadable file, or
// a failing prober, degrades to a zero duration instead of an error.
func NewAudioAsset(ctx context.Context, name, path string, prober DurationProber) AudioAsset {
	if name == "" {
		name = filepath.Base(path)
	}
	asset := AudioAsset{DisplayName: name, SourcePath: path}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		logger.Warn("audio asset is not a readable file, using zero duration",
			logger.String("path", path))
		return asset
	}
	if prober == nil {
		return asset
	}

	d, err := prober.ProbeDuration(ctx, path)
	if err != nil || d < 0 {
		logger.Warn("could not probe audio duration, using zero duration",
			logger.String("path", path), logger.ErrorField(err))
		return asset
	}
	asset.DurationSeconds = d
	return asset
}

func (a AudioAsset) String() string {
	return a.DisplayName
}
