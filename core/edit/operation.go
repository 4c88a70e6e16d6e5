// Package edit implements the edit transaction applied to a track: choose an
// operation from the catalogue, collect its parameters, hand the command to
// the engine and reconcile the track's clip list afterwards.
package edit

import (
	"fmt"
	"strconv"
	"strings"

	"Tracksmith/core/engine"
)

// Operation is one entry of the fixed edit catalogue.
type Operation int

const (
	Details Operation = iota
	Loop
	Trim
	ClipGain
	FrequencyScaling
	TimeScaling
	Compressing
	PitchFilter
	Normalize
	Reverb
	DeleteClip
)

// Catalogue lists every operation in menu order.
var Catalogue = []Operation{
	Details, Loop, Trim, ClipGain, FrequencyScaling, TimeScaling,
	Compressing, PitchFilter, Normalize, Reverb, DeleteClip,
}

var operationLabels = [...]string{
	Details:          "Details",
	Loop:             "Loop",
	Trim:             "Trim",
	ClipGain:         "Clip Gain",
	FrequencyScaling: "Frequency Scaling",
	TimeScaling:      "Time Scaling",
	Compressing:      "Compressing",
	PitchFilter:      "Pitch Filter",
	Normalize:        "Normalize",
	Reverb:           "Reverb",
	DeleteClip:       "Delete Clip",
}

var operationCodes = [...]int{
	Details:          engine.CodeDetails,
	Loop:             engine.CodeLoop,
	Trim:             engine.CodeTrim,
	ClipGain:         engine.CodeClipGain,
	FrequencyScaling: engine.CodeFrequencyScaling,
	TimeScaling:      engine.CodeTimeScaling,
	Compressing:      engine.CodeCompressing,
	PitchFilter:      engine.CodePitchFilter,
	Normalize:        engine.CodeNormalize,
	Reverb:           engine.CodeReverb,
}

func (o Operation) Valid() bool {
	return o >= Details && o <= DeleteClip
}

// String returns the menu label.
func (o Operation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return operationLabels[o]
}

// Code returns the engine operation code. DeleteClip is handled locally and
// reports false.
func (o Operation) Code() (int, bool) {
	if !o.Valid() || o == DeleteClip {
		return 0, false
	}
	return operationCodes[o], true
}

// Local reports whether the operation never reaches the engine.
func (o Operation) Local() bool {
	return o == DeleteClip
}

func (o Operation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(o))
	}
	return []byte(o.String()), nil
}

func (o *Operation) UnmarshalText(b []byte) error {
	op, err := ParseOperation(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

func normalizeName(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

var operationsByName = func() map[string]Operation {
	m := map[string]Operation{"delete": DeleteClip, "gain": ClipGain}
	for _, op := range Catalogue {
		m[normalizeName(op.String())] = op
	}
	return m
}()

// ParseOperation accepts a menu label in any case and spacing ("Clip Gain",
// "clip-gain", "clipgain") or an engine code ("3").
func ParseOperation(s string) (Operation, error) {
	if op, ok := operationsByName[normalizeName(s)]; ok {
		return op, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		for _, op := range Catalogue {
			if code, ok := op.Code(); ok && code == n {
				return op, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}
