// Package engine defines the command protocol spoken to the audio-processing
// engine and the adapters that execute it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Operation codes understood by the engine.
const (
	CodeCreateBlank      = -1
	CodeDetails          = 0
	CodeLoop             = 1
	CodeTrim             = 2
	CodeClipGain         = 3
	CodeFrequencyScaling = 4
	CodeTimeScaling      = 5
	CodeCompressing      = 6
	CodePitchFilter      = 7
	CodeNormalize        = 8
	CodeReverb           = 9
	CodeSuperimpose      = 10
)

var codeNames = map[int]string{
	CodeCreateBlank:      "create-blank",
	CodeDetails:          "details",
	CodeLoop:             "loop",
	CodeTrim:             "trim",
	CodeClipGain:         "clip-gain",
	CodeFrequencyScaling: "frequency-scaling",
	CodeTimeScaling:      "time-scaling",
	CodeCompressing:      "compressing",
	CodePitchFilter:      "pitch-filter",
	CodeNormalize:        "normalize",
	CodeReverb:           "reverb",
	CodeSuperimpose:      "superimpose",
}

// CodeName returns a readable name for an operation code.
func CodeName(code int) string {
	if n, ok := codeNames[code]; ok {
		return n
	}
	return "code-" + strconv.Itoa(code)
}

// EditCommand is one request to the engine: transform TargetPath using the
// operation identified by Code with ordered string parameters.
type EditCommand struct {
	TargetPath string   `json:"targetPath"`
	Code       int      `json:"code"`
	Params     []string `json:"params"`
}

func (c EditCommand) String() string {
	return fmt.Sprintf("%s %s [%s]", CodeName(c.Code), c.TargetPath, strings.Join(c.Params, ", "))
}

// Adapter executes engine commands. Execute blocks until the engine is done
// with the command.
type Adapter interface {
	Execute(ctx context.Context, cmd EditCommand) error
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, cmd EditCommand) error

func (f AdapterFunc) Execute(ctx context.Context, cmd EditCommand) error {
	return f(ctx, cmd)
}

// ErrEngine matches every failure reported by an engine adapter.
var ErrEngine = errors.New("engine failure")

// EngineError reports a command the engine could not carry out.
type EngineError struct {
	Command EditCommand
	Err     error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s on %s: %v", CodeName(e.Command.Code), e.Command.TargetPath, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) Is(target error) bool {
	return target == ErrEngine
}

// FormatFloat renders a number the way the engine's command parser expects:
// shortest round-trip form, always carrying a fractional part ("3" -> "3.0").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// ParseFloat accepts the engine's numeric parameter format.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseInt accepts integers written either plainly or with a fractional part
// ("3" and "3.0" both read as 3).
func ParseInt(s string) (int, error) {
	f, err := ParseFloat(s)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
