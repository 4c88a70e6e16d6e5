// Package mixdown renders the timeline into the project's master file and
// exports trimmed copies of it.
package mixdown

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Tracksmith/core/engine"
	"Tracksmith/core/timeline"
	"Tracksmith/logger"
)

// DefaultExportName is used when no export name is given.
const DefaultExportName = "finalAudio"

// Layout is the part of a timeline the orchestrator reads.
type Layout interface {
	// Clips returns every clip in track order, then clip order.
	Clips() []*timeline.Clip
	MaxEnd() float64
}

// ExportError reports an I/O failure while exporting.
type ExportError struct {
	Dest string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Dest, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

type Option func(*Orchestrator)

// OnMasterUpdated registers fn to run with the master path after every
// successful UpdateMaster, the hook a playback collaborator reloads from.
func OnMasterUpdated(fn func(masterPath string)) Option {
	return func(o *Orchestrator) { o.onUpdate = append(o.onUpdate, fn) }
}

// Orchestrator issues the placement and trim commands that build the master
// and exports.
type Orchestrator struct {
	adapter  engine.Adapter
	master   string
	onUpdate []func(string)
}

func New(adapter engine.Adapter, masterPath string, opts ...Option) *Orchestrator {
	o := &Orchestrator{adapter: adapter, master: masterPath}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) MasterPath() string {
	return o.master
}

// PrepareMaster asks the engine for a blank master of the given length.
func (o *Orchestrator) PrepareMaster(ctx context.Context, seconds int) error {
	cmd := engine.EditCommand{TargetPath: o.master, Code: engine.CodeCreateBlank, Params: []string{strconv.Itoa(seconds)}}
	if err := o.adapter.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("failed to prepare master: %w", err)
	}
	logger.Info("master prepared", logger.String("path", o.master), logger.Int("seconds", seconds))
	return nil
}

// PlacementCommands returns the superimpose commands for layout, one per clip
// in track-then-clip order.
func (o *Orchestrator) PlacementCommands(layout Layout) []engine.EditCommand {
	clips := layout.Clips()
	cmds := make([]engine.EditCommand, 0, len(clips))
	for _, c := range clips {
		cmds = append(cmds, engine.EditCommand{
			TargetPath: o.master,
			Code:       engine.CodeSuperimpose,
			Params:     []string{c.SourcePath(), engine.FormatFloat(c.StartSeconds)},
		})
	}
	return cmds
}

// UpdateMaster places every clip of layout into the master file and returns
// the number of placements issued. It stops at the first engine failure but
// not when ctx is cancelled.
func (o *Orchestrator) UpdateMaster(ctx context.Context, layout Layout) (int, error) {
	// Stopping partway would leave the master half mixed.
	ctx = context.WithoutCancel(ctx)
	cmds := o.PlacementCommands(layout)
	for i, cmd := range cmds {
		if err := o.adapter.Execute(ctx, cmd); err != nil {
			return i, fmt.Errorf("placement %d/%d failed: %w", i+1, len(cmds), err)
		}
	}
	logger.Info("master updated", logger.String("path", o.master), logger.Int("placements", len(cmds)))
	for _, fn := range o.onUpdate {
		fn(o.master)
	}
	return len(cmds), nil
}

// ExportTo updates the master, copies it to dest and trims the copy to the
// end of the longest clip. It returns the exported path.
func (o *Orchestrator) ExportTo(ctx context.Context, layout Layout, dest string) (string, error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := o.UpdateMaster(ctx, layout); err != nil {
		return "", err
	}
	if err := copyFile(o.master, dest); err != nil {
		return "", &ExportError{Dest: dest, Err: err}
	}

	maxEnd := layout.MaxEnd()
	trim := engine.EditCommand{
		TargetPath: dest,
		Code:       engine.CodeTrim,
		Params:     []string{engine.FormatFloat(maxEnd * 1000), "1"},
	}
	if err := o.adapter.Execute(ctx, trim); err != nil {
		return "", fmt.Errorf("failed to trim export: %w", err)
	}

	logger.Info("export complete", logger.String("path", dest), logger.Float64("seconds", maxEnd))
	return dest, nil
}

// ResolveExportPath builds dir/name.wav, falling back to DefaultExportName.
func ResolveExportPath(dir, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultExportName
	}
	if !strings.EqualFold(filepath.Ext(name), ".wav") {
		name += ".wav"
	}
	return filepath.Join(dir, name)
}

// copyFile duplicates src to dst, replacing dst if it exists. Copying a
// file onto itself leaves it untouched.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return err
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return nil
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
