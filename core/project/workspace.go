// Package project manages the on-disk workspace of an editing session.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"Tracksmith/logger"
)

var ErrBaseMissing = errors.New("base path does not exist or is not a directory")

// Workspace is the project folder holding the master file.
type Workspace struct {
	dir    string
	master string
	closed bool
}

// Open creates folder under base, which must already exist, and returns
// the workspace whose master file is folder/masterFile.
func Open(base, folder, masterFile string) (*Workspace, error) {
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrBaseMissing, base)
	}
	dir := filepath.Join(base, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", dir, err)
	}
	ws := &Workspace{dir: dir, master: filepath.Join(dir, masterFile)}
	logger.Info("project workspace ready", logger.String("dir", dir), logger.String("master", ws.master))
	return ws, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

func (w *Workspace) MasterPath() string {
	return w.master
}

// Close removes the project folder and everything in it.
func (w *Workspace) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := os.RemoveAll(w.dir); err != nil {
		logger.Error("failed to remove project folder", logger.String("dir", w.dir), logger.ErrorField(err))
		return fmt.Errorf("failed to remove %s: %w", w.dir, err)
	}
	logger.Info("project workspace removed", logger.String("dir", w.dir))
	return nil
}
