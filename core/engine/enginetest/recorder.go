// Package enginetest provides an in-memory engine adapter for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"

	"Tracksmith/core/engine"
)

// Recorder is an engine.Adapter that records every command it receives.
// Commands whose code has an entry in Fail return that error wrapped in an
// engine.EngineError.
type Recorder struct {
	mu       sync.Mutex
	commands []engine.EditCommand

	Fail map[int]error
	// Hook, when set, runs for each command after it is recorded.
	Hook func(cmd engine.EditCommand) error
}

func New() *Recorder {
	return &Recorder{Fail: map[int]error{}}
}

// FailOn makes every command with code return err.
func (r *Recorder) FailOn(code int, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		err = errors.New("simulated engine failure")
	}
	r.Fail[code] = err
	return r
}

func (r *Recorder) Execute(ctx context.Context, cmd engine.EditCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	cmd.Params = append([]string(nil), cmd.Params...)
	r.commands = append(r.commands, cmd)
	failure := r.Fail[cmd.Code]
	hook := r.Hook
	r.mu.Unlock()

	if failure != nil {
		return &engine.EngineError{Command: cmd, Err: failure}
	}
	if hook != nil {
		return hook(cmd)
	}
	return nil
}

// Commands returns a copy of everything executed so far.
func (r *Recorder) Commands() []engine.EditCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.EditCommand(nil), r.commands...)
}

// Codes returns the operation codes executed so far, in order.
func (r *Recorder) Codes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]int, len(r.commands))
	for i, c := range r.commands {
		codes[i] = c.Code
	}
	return codes
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.commands = nil
	r.mu.Unlock()
}
