// Package staging holds audio assets the user has brought into the project
// but not necessarily placed on a track.
package staging

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"Tracksmith/core/timeline"
	"Tracksmith/logger"
)

var (
	ErrUnsupportedFile = errors.New("please select a valid .wav file")
	ErrAssetNotFound   = errors.New("staged asset not found")
)

// Supported reports whether path has an extension staging accepts.
func Supported(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// Area is the ordered list of staged assets. It is not safe for concurrent
// use; the session owns it.
type Area struct {
	prober timeline.DurationProber
	assets []timeline.AudioAsset
}

func NewArea(prober timeline.DurationProber) *Area {
	return &Area{prober: prober}
}

// Add stages the file at path. The duration is probed once here.
func (a *Area) Add(ctx context.Context, path string) (timeline.AudioAsset, error) {
	if !Supported(path) {
		return timeline.AudioAsset{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	asset := timeline.NewAudioAsset(ctx, "", path, a.prober)
	a.assets = append(a.assets, asset)
	logger.Info("asset staged",
		logger.String("name", asset.DisplayName),
		logger.String("path", asset.SourcePath),
		logger.Float64("duration", asset.DurationSeconds))
	return asset, nil
}

func (a *Area) Len() int {
	return len(a.assets)
}

// Assets returns a copy of the staged assets.
func (a *Area) Assets() []timeline.AudioAsset {
	return append([]timeline.AudioAsset(nil), a.assets...)
}

func (a *Area) Asset(i int) (timeline.AudioAsset, error) {
	if i < 0 || i >= len(a.assets) {
		return timeline.AudioAsset{}, fmt.Errorf("%w: index %d", ErrAssetNotFound, i)
	}
	return a.assets[i], nil
}

// Contains reports whether an asset with path is staged.
func (a *Area) Contains(path string) bool {
	for _, as := range a.assets {
		if as.SourcePath == path {
			return true
		}
	}
	return false
}

// Delete removes the asset at index i from staging. Clips already placed
// from it are untouched.
func (a *Area) Delete(i int) (timeline.AudioAsset, error) {
	asset, err := a.Asset(i)
	if err != nil {
		return asset, err
	}
	a.assets = append(a.assets[:i], a.assets[i+1:]...)
	logger.Info("asset removed from staging", logger.String("path", asset.SourcePath))
	return asset, nil
}

// DeleteAsset removes the first staged asset equal to asset.
func (a *Area) DeleteAsset(asset timeline.AudioAsset) error {
	for i, as := range a.assets {
		if as == asset {
			_, err := a.Delete(i)
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrAssetNotFound, asset.SourcePath)
}

// AddToTrack places staged asset i on tr as a new clip.
func (a *Area) AddToTrack(i int, tr *timeline.Track) (*timeline.Clip, error) {
	asset, err := a.Asset(i)
	if err != nil {
		return nil, err
	}
	c := tr.SetClip(asset)
	logger.Info("asset added to track", logger.String("track", tr.Title()), logger.String("path", asset.SourcePath))
	return c, nil
}

// AddToNewTrack appends a track to tl holding staged asset i.
func (a *Area) AddToNewTrack(i int, tl *timeline.Timeline) (*timeline.Track, *timeline.Clip, error) {
	asset, err := a.Asset(i)
	if err != nil {
		return nil, nil, err
	}
	tr, c := tl.AddTrackForAsset(asset)
	logger.Info("asset added to new track", logger.String("track", tr.Title()), logger.String("path", asset.SourcePath))
	return tr, c, nil
}
