package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"Tracksmith/logger"
)

// ExecAdapter hands each command to an external engine binary as
//
//	<bin> <targetPath> <code> <param>...
//
// The binary edits the target in place. A non-zero exit is reported as an
// EngineError; whatever the binary prints is logged at debug level.
type ExecAdapter struct {
	bin string
}

func NewExecAdapter(bin string) (*ExecAdapter, error) {
	if bin == "" {
		return nil, errors.New("engine binary not configured")
	}
	return &ExecAdapter{bin: bin}, nil
}

func (a *ExecAdapter) Execute(ctx context.Context, cmd EditCommand) error {
	args := append([]string{cmd.TargetPath, strconv.Itoa(cmd.Code)}, cmd.Params...)
	c := exec.CommandContext(ctx, a.bin, args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	logger.Debug("executing engine command",
		logger.String("bin", a.bin),
		logger.String("command", cmd.String()))

	err := c.Run()
	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.Debug("engine output", logger.String("command", CodeName(cmd.Code)), logger.String("stdout", out))
	}
	if err != nil {
		return &EngineError{Command: cmd, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	}
	return nil
}
