package edit

import (
	"context"
	"strings"
)

// Parameter field keys.
const (
	FieldCount     = "count"
	FieldTimestamp = "timestamp"
	FieldPart      = "part"
	FieldFactor    = "factor"
	FieldDuration  = "duration"
	FieldThreshold = "threshold"
	FieldRatio     = "ratio"
	FieldCutoff    = "cutoff"
	FieldType      = "type"
	FieldLevel     = "level"
)

// Field describes one value the user is asked for. Choices, when set, lists
// the accepted answers and Default the preselected one.
type Field struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Choices []string `json:"choices,omitempty"`
	Default string   `json:"default,omitempty"`
}

var operationFields = map[Operation][]Field{
	Loop: {{Key: FieldCount, Label: "Please input loop count"}},
	Trim: {
		{Key: FieldTimestamp, Label: "Time stamp (ms)"},
		{Key: FieldPart, Label: "Choose part (1/2)", Choices: []string{"1", "2"}},
	},
	ClipGain:         {{Key: FieldFactor, Label: "Please input gain factor"}},
	FrequencyScaling: {{Key: FieldFactor, Label: "Please input frequency factor"}},
	TimeScaling:      {{Key: FieldDuration, Label: "Desired duration (ms)"}},
	Compressing: {
		{Key: FieldThreshold, Label: "Threshold"},
		{Key: FieldRatio, Label: "Compression ratio"},
	},
	PitchFilter: {
		{Key: FieldCutoff, Label: "Cutoff frequency"},
		{Key: FieldType, Label: "Filter type (H/L)", Choices: []string{"H", "L"}},
	},
	Reverb: {{Key: FieldLevel, Label: "Select reverb level", Choices: []string{"Low", "Medium", "High"}, Default: "Medium"}},
}

// Fields returns the parameters op asks for, in prompt order.
func Fields(op Operation) []Field {
	return append([]Field(nil), operationFields[op]...)
}

// Prompter asks the user for one parameter value. ok is false when the user
// cancelled.
type Prompter interface {
	Prompt(ctx context.Context, op Operation, f Field) (value string, ok bool, err error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, op Operation, f Field) (string, bool, error)

func (fn PrompterFunc) Prompt(ctx context.Context, op Operation, f Field) (string, bool, error) {
	return fn(ctx, op, f)
}

// ValuesPrompter answers prompts from a fixed set of values. A missing key
// counts as a cancelled prompt.
type ValuesPrompter map[string]string

func (v ValuesPrompter) Prompt(ctx context.Context, op Operation, f Field) (string, bool, error) {
	val, ok := v[f.Key]
	if !ok {
		return "", false, nil
	}
	if strings.TrimSpace(val) == "" && f.Default != "" {
		return f.Default, true, nil
	}
	return val, true, nil
}

// Collect asks for every field of op and parses the answers. A cancelled
// prompt aborts with ErrCancelled.
func Collect(ctx context.Context, op Operation, p Prompter) (Params, error) {
	if !op.Valid() {
		return nil, ErrUnknownOperation
	}
	fields := operationFields[op]
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, ok, err := p.Prompt(ctx, op, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCancelled
		}
		values[f.Key] = v
	}
	return Parse(op, values)
}
