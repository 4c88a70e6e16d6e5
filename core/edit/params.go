package edit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"Tracksmith/core/engine"
)

var (
	ErrCancelled        = errors.New("edit cancelled")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ParamError reports a parameter value that could not be used.
type ParamError struct {
	Operation Operation
	Field     string
	Value     string
	Err       error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: invalid %s %q: %v", e.Operation, e.Field, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

func (e *ParamError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Params is the typed parameter set of one operation.
type Params interface {
	Operation() Operation
	// Args renders the parameters in engine wire order.
	Args() []string
}

type DetailsParams struct{}

type LoopParams struct {
	Count int
}

// TrimParams splits the clip at TimestampMs and keeps Part 1 (before) or 2 (after).
type TrimParams struct {
	TimestampMs float64
	Part        int
}

type ClipGainParams struct {
	Factor float64
}

type FrequencyScalingParams struct {
	Factor float64
}

type TimeScalingParams struct {
	DurationMs float64
}

type CompressingParams struct {
	Threshold float64
	Ratio     float64
}

type FilterType string

const (
	HighPass FilterType = "H"
	LowPass  FilterType = "L"
)

type PitchFilterParams struct {
	Cutoff float64
	Type   FilterType
}

type NormalizeParams struct{}

type ReverbLevel int

const (
	ReverbLow ReverbLevel = iota + 1
	ReverbMedium
	ReverbHigh
)

var reverbLevelNames = map[string]ReverbLevel{
	"low": ReverbLow, "medium": ReverbMedium, "high": ReverbHigh,
	"1": ReverbLow, "2": ReverbMedium, "3": ReverbHigh,
}

func (l ReverbLevel) String() string {
	switch l {
	case ReverbLow:
		return "Low"
	case ReverbMedium:
		return "Medium"
	case ReverbHigh:
		return "High"
	}
	return "ReverbLevel(" + strconv.Itoa(int(l)) + ")"
}

type ReverbParams struct {
	Level ReverbLevel
}

type DeleteClipParams struct{}

func (DetailsParams) Operation() Operation { return Details }
func (LoopParams) Operation() Operation { return Loop }
func (TrimParams) Operation() Operation { return Trim }
func (ClipGainParams) Operation() Operation { return ClipGain }
func (FrequencyScalingParams) Operation() Operation { return FrequencyScaling }
func (TimeScalingParams) Operation() Operation { return TimeScaling }
func (CompressingParams) Operation() Operation { return Compressing }
func (PitchFilterParams) Operation() Operation { return PitchFilter }
func (NormalizeParams) Operation() Operation { return Normalize }
func (ReverbParams) Operation() Operation { return Reverb }
func (DeleteClipParams) Operation() Operation { return DeleteClip }

func (DetailsParams) Args() []string { return []string{} }

func (p LoopParams) Args() []string {
	return []string{engine.FormatFloat(float64(p.Count))}
}

func (p TrimParams) Args() []string {
	return []string{engine.FormatFloat(p.TimestampMs), engine.FormatFloat(float64(p.Part))}
}

func (p ClipGainParams) Args() []string { return []string{engine.FormatFloat(p.Factor)} }

func (p FrequencyScalingParams) Args() []string { return []string{engine.FormatFloat(p.Factor)} }

// Args sends the duration rounded to three decimals.
func (p TimeScalingParams) Args() []string {
	return []string{engine.FormatFloat(math.Round(p.DurationMs*1000) / 1000)}
}

func (p CompressingParams) Args() []string {
	return []string{engine.FormatFloat(p.Threshold), engine.FormatFloat(p.Ratio)}
}

func (p PitchFilterParams) Args() []string {
	return []string{engine.FormatFloat(p.Cutoff), string(p.Type)}
}

func (NormalizeParams) Args() []string { return []string{} }

func (p ReverbParams) Args() []string { return []string{strconv.Itoa(int(p.Level))} }

func (DeleteClipParams) Args() []string { return nil }

// Parse builds the typed parameters for op from raw values keyed by field.
func Parse(op Operation, values map[string]string) (Params, error) {
	get := func(key string) (string, error) {
		v, ok := values[key]
		if !ok {
			return "", &ParamError{Operation: op, Field: key, Err: errors.New("missing value")}
		}
		return strings.TrimSpace(v), nil
	}
	num := func(key string) (float64, error) {
		v, err := get(key)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &ParamError{Operation: op, Field: key, Value: v, Err: errors.New("not a valid number")}
		}
		return f, nil
	}
	bad := func(key string, v float64, why string) error {
		return &ParamError{Operation: op, Field: key, Value: engine.FormatFloat(v), Err: errors.New(why)}
	}

	switch op {
	case Details:
		return DetailsParams{}, nil

	case Loop:
		v, err := get(FieldCount)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ParamError{Operation: op, Field: FieldCount, Value: v, Err: errors.New("not a whole number")}
		}
		if n < 1 {
			return nil, &ParamError{Operation: op, Field: FieldCount, Value: v, Err: errors.New("must be at least 1")}
		}
		return LoopParams{Count: n}, nil

	case Trim:
		ts, err := num(FieldTimestamp)
		if err != nil {
			return nil, err
		}
		if ts < 0 {
			return nil, bad(FieldTimestamp, ts, "must not be negative")
		}
		part, err := num(FieldPart)
		if err != nil {
			return nil, err
		}
		if part != 1 && part != 2 {
			return nil, bad(FieldPart, part, "must be 1 or 2")
		}
		return TrimParams{TimestampMs: ts, Part: int(part)}, nil

	case ClipGain:
		f, err := num(FieldFactor)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, bad(FieldFactor, f, "must not be negative")
		}
		return ClipGainParams{Factor: f}, nil

	case FrequencyScaling:
		f, err := num(FieldFactor)
		if err != nil {
			return nil, err
		}
		if f <= 0 {
			return nil, bad(FieldFactor, f, "must be positive")
		}
		return FrequencyScalingParams{Factor: f}, nil

	case TimeScaling:
		d, err := num(FieldDuration)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, bad(FieldDuration, d, "must be positive")
		}
		return TimeScalingParams{DurationMs: math.Round(d*1000) / 1000}, nil

	case Compressing:
		th, err := num(FieldThreshold)
		if err != nil {
			return nil, err
		}
		r, err := num(FieldRatio)
		if err != nil {
			return nil, err
		}
		return CompressingParams{Threshold: th, Ratio: r}, nil

	case PitchFilter:
		c, err := num(FieldCutoff)
		if err != nil {
			return nil, err
		}
		if c <= 0 {
			return nil, bad(FieldCutoff, c, "must be positive")
		}
		v, err := get(FieldType)
		if err != nil {
			return nil, err
		}
		t := FilterType(strings.ToUpper(v))
		if t != HighPass && t != LowPass {
			return nil, &ParamError{Operation: op, Field: FieldType, Value: v, Err: errors.New("must be H or L")}
		}
		return PitchFilterParams{Cutoff: c, Type: t}, nil

	case Normalize:
		return NormalizeParams{}, nil

	case Reverb:
		v, err := get(FieldLevel)
		if err != nil {
			return nil, err
		}
		level, ok := reverbLevelNames[strings.ToLower(v)]
		if !ok {
			return nil, &ParamError{Operation: op, Field: FieldLevel, Value: v, Err: errors.New("must be Low, Medium or High")}
		}
		return ReverbParams{Level: level}, nil

	case DeleteClip:
		return DeleteClipParams{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
}
