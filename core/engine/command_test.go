package engine

import (
	"context"
	"errors"
	"testing"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.0"},
		{0, "0.0"},
		{1500, "1500.0"},
		{2.5, "2.5"},
		{-12, "-12.0"},
		{0.125, "0.125"},
		{5500, "5500.0"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"3.0", 3, false},
		{" 7 ", 7, false},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseInt(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInt(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEngineErrorMatching(t *testing.T) {
	cause := errors.New("exit status 1")
	var err error = &EngineError{Command: EditCommand{TargetPath: "a.wav", Code: CodeLoop}, Err: cause}

	if !errors.Is(err, ErrEngine) {
		t.Error("errors.Is(err, ErrEngine) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Command.Code != CodeLoop {
		t.Errorf("errors.As() = %v", ee)
	}
}

func TestCodeName(t *testing.T) {
	if got := CodeName(CodeSuperimpose); got != "superimpose" {
		t.Errorf("CodeName(10) = %q", got)
	}
	if got := CodeName(42); got != "code-42" {
		t.Errorf("CodeName(42) = %q", got)
	}
}

func TestNewExecAdapterRequiresBinary(t *testing.T) {
	if _, err := NewExecAdapter(""); err == nil {
		t.Error("NewExecAdapter(\"\") succeeded")
	}
}

func TestExecAdapterMissingBinary(t *testing.T) {
	a, err := NewExecAdapter("/nonexistent/tracksmith-engine")
	if err != nil {
		t.Fatal(err)
	}
	err = a.Execute(context.Background(), EditCommand{TargetPath: "x.wav", Code: CodeNormalize})
	if !errors.Is(err, ErrEngine) {
		t.Errorf("Execute() err = %v, want ErrEngine", err)
	}
}

func TestAdapterFunc(t *testing.T) {
	var got EditCommand
	var a Adapter = AdapterFunc(func(ctx context.Context, cmd EditCommand) error {
		got = cmd
		return nil
	})
	want := EditCommand{TargetPath: "t.wav", Code: CodeReverb, Params: []string{"2.0"}}
	if err := a.Execute(context.Background(), want); err != nil {
		t.Fatal(err)
	}
	if got.String() != want.String() {
		t.Errorf("received %v, want %v", got, want)
	}
}
