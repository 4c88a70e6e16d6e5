package cmd

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Tracksmith/core/edit"
	"Tracksmith/core/engine"
	"Tracksmith/core/engine/enginetest"
	"Tracksmith/core/mixdown"
	"Tracksmith/core/session"
	"Tracksmith/core/staging"
	"Tracksmith/core/timeline"
)

type fixedProber float64

func (p fixedProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return float64(p), nil
}

func TestTerminalPrompter(t *testing.T) {
	field := edit.Field{Key: edit.FieldLevel, Label: "Select reverb level", Choices: []string{"Low", "Medium", "High"}, Default: "Medium"}
	plain := edit.Field{Key: edit.FieldCount, Label: "Please input loop count"}

	tests := []struct {
		name   string
		input  string
		field  edit.Field
		want   string
		wantOK bool
	}{
		{"answer", "High\n", field, "High", true},
		{"default", "\n", field, "Medium", true},
		{"empty without default", "\n", plain, "", false},
		{"cancel", "Cancel\n", plain, "", false},
		{"eof", "", plain, "", false},
		{"trimmed", "  3 \n", plain, "3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &terminalPrompter{in: bufio.NewScanner(strings.NewReader(tt.input)), out: &out}
			got, ok, err := p.Prompt(context.Background(), edit.Reverb, tt.field)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Prompt() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
			if !strings.Contains(out.String(), tt.field.Label) {
				t.Errorf("prompt output %q lacks label", out.String())
			}
		})
	}
}

func TestShellScript(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "kick.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	master := filepath.Join(dir, "finalFile.wav")
	if err := os.WriteFile(master, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := enginetest.New()
	st := &session.State{
		Timeline:   timeline.New(timeline.DefaultGeometry()).WithDefaultTracks(2),
		Staging:    staging.NewArea(fixedProber(1.5)),
		Dispatcher: edit.NewDispatcher(rec),
		Mixdown:    mixdown.New(rec, master),
	}
	a := &app{state: st, sess: session.New(st, session.WithTickInterval(0))}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		a.sess.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	script := strings.Join([]string{
		"stage " + wav,
		"add 1 track2",
		"select 2",
		"edit clip gain",
		"0.5",
		"edit loop",
		"cancel",
		"bogus",
		"tracks",
		"quit",
	}, "\n") + "\n"

	var out bytes.Buffer
	in := bufio.NewScanner(strings.NewReader(script))
	sh := &shell{app: a, in: in, out: &out, prompter: &terminalPrompter{in: in, out: &out}}
	if err := sh.loop(ctx); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"staged kick.wav", "Clip Gain applied to kick.wav", "cancelled", `unknown command "bogus"`, "* 2 Track2", "1. kick.wav"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	cmds := rec.Commands()
	if len(cmds) != 1 || cmds[0].Code != engine.CodeClipGain || cmds[0].Params[0] != "0.5" || cmds[0].TargetPath != wav {
		t.Errorf("engine commands = %+v", cmds)
	}
}
