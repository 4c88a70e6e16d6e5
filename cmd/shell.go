package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"Tracksmith/core/edit"
	"Tracksmith/core/session"
	"Tracksmith/core/timeline"
	"Tracksmith/storage"

	"github.com/spf13/cobra"
)

const shellHelp = `commands:
  staged                       list staged assets
  stage <path.wav>             stage a file
  unstage <n>                  remove staged asset n
  tracks                       show tracks and clips
  add <n> [track]              place staged asset n on track, or on a new track
  select <track>               select a track (number or title)
  drag <track> <clip> <dx>     move a clip by dx pixels
  ops                          list edit operations
  edit <operation>             edit the first clip of the selected track
  master                       rebuild the master file
  export <dir> [name]          export the mix to dir/name.wav
  upload <path>                publish a file to object storage
  save <name>                  save the project
  quit`

// terminalPrompter asks for edit parameters on the shell's input. Typing
// "cancel", or an empty answer for a field without a default, cancels.
type terminalPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *terminalPrompter) Prompt(ctx context.Context, op edit.Operation, f edit.Field) (string, bool, error) {
	label := f.Label
	if len(f.Choices) > 0 {
		label += " [" + strings.Join(f.Choices, "/") + "]"
	}
	if f.Default != "" {
		label += " (" + f.Default + ")"
	}
	fmt.Fprintf(p.out, "%s: %s: ", op, label)

	if !p.in.Scan() {
		return "", false, p.in.Err()
	}
	answer := strings.TrimSpace(p.in.Text())
	switch {
	case strings.EqualFold(answer, "cancel"):
		return "", false, nil
	case answer == "" && f.Default != "":
		return f.Default, true, nil
	case answer == "":
		return "", false, nil
	}
	return answer, true, nil
}

type shell struct {
	app      *app
	in       *bufio.Scanner
	out      io.Writer
	prompter *terminalPrompter
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit interactively from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		project, _ := cmd.Flags().GetString("project")
		a, err := newApp(ctx, cfg, appOptions{project: project, needDB: cfg.DBDriver != "none", needStore: cfg.MinioEnabled()})
		if err != nil {
			return err
		}
		defer a.Close()
		done := a.run(ctx)

		in := bufio.NewScanner(cmd.InOrStdin())
		sh := &shell{app: a, in: in, out: cmd.OutOrStdout(), prompter: &terminalPrompter{in: in, out: cmd.OutOrStdout()}}
		err = sh.loop(ctx)
		stop()
		<-done
		return err
	},
}

func init() {
	shellCmd.Flags().String("project", "", "load a saved project instead of empty tracks")
	rootCmd.AddCommand(shellCmd)
}

func (sh *shell) loop(ctx context.Context) error {
	fmt.Fprintln(sh.out, "tracksmith shell, type help for commands")
	for {
		fmt.Fprint(sh.out, "> ")
		if !sh.in.Scan() {
			fmt.Fprintln(sh.out)
			return sh.in.Err()
		}
		fields := strings.Fields(sh.in.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := sh.exec(ctx, fields[0], fields[1:]); err != nil {
			if errors.Is(err, edit.ErrCancelled) {
				fmt.Fprintln(sh.out, "cancelled")
				continue
			}
			fmt.Fprintln(sh.out, "error:", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (sh *shell) do(ctx context.Context, fn func(ctx context.Context, st *session.State) error) error {
	return sh.app.sess.Do(ctx, fn)
}

func atoiArg(args []string, i int, what string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s", what)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", what, args[i])
	}
	return n, nil
}

func (sh *shell) exec(ctx context.Context, name string, args []string) error {
	switch name {
	case "help":
		fmt.Fprintln(sh.out, shellHelp)

	case "staged":
		for i, a := range sh.app.sess.Snapshot().Staged {
			fmt.Fprintf(sh.out, "%3d  %s\n", i+1, a)
		}

	case "stage":
		if len(args) == 0 {
			return errors.New("missing path")
		}
		path := strings.Join(args, " ")
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			a, err := st.Stage(ctx, path)
			if err == nil {
				fmt.Fprintln(sh.out, "staged", a)
			}
			return err
		})

	case "unstage":
		n, err := atoiArg(args, 0, "asset number")
		if err != nil {
			return err
		}
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			_, err := st.Unstage(n - 1)
			return err
		})

	case "tracks":
		sh.printTracks(sh.app.sess.Snapshot())

	case "add":
		n, err := atoiArg(args, 0, "asset number")
		if err != nil {
			return err
		}
		if len(args) == 1 {
			return sh.do(ctx, func(ctx context.Context, st *session.State) error {
				tr, _, err := st.AddToNewTrack(n - 1)
				if err == nil {
					fmt.Fprintln(sh.out, "created", tr.Title())
				}
				return err
			})
		}
		id, err := resolveTrack(sh.app.sess.Snapshot().Tracks, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			_, err := st.AddToTrack(n-1, id)
			return err
		})

	case "select":
		id, err := resolveTrack(sh.app.sess.Snapshot().Tracks, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			return st.Select(id)
		})

	case "drag":
		if len(args) != 3 {
			return errors.New("usage: drag <track> <clip> <dx>")
		}
		tracks := sh.app.sess.Snapshot().Tracks
		id, err := resolveTrack(tracks, args[0])
		if err != nil {
			return err
		}
		clip, err := resolveClip(tracks, id, args[1])
		if err != nil {
			return err
		}
		dx, err := atoiArg(args, 2, "dx")
		if err != nil {
			return err
		}
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			_, err := st.DragClip(id, clip, timeline.Point{X: dx})
			return err
		})

	case "ops":
		for _, op := range edit.Catalogue {
			fmt.Fprintln(sh.out, " ", op)
		}

	case "edit":
		op, err := edit.ParseOperation(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			out, err := st.EditSelected(ctx, op, sh.prompter)
			if err == nil {
				fmt.Fprintf(sh.out, "%s applied to %s\n", op, out.Target.Asset.DisplayName)
			}
			return err
		})

	case "master":
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			n, err := st.UpdateMaster(ctx)
			if err == nil {
				fmt.Fprintf(sh.out, "master updated with %d placements\n", n)
			}
			return err
		})

	case "export":
		if len(args) == 0 {
			return errors.New("usage: export <dir> [name]")
		}
		name := ""
		if len(args) > 1 {
			name = strings.Join(args[1:], " ")
		}
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			path, err := st.Export(ctx, args[0], name)
			if err == nil {
				fmt.Fprintln(sh.out, "exported", path)
			}
			return err
		})

	case "upload":
		if sh.app.store == nil {
			return errors.New("object storage is not configured")
		}
		if len(args) == 0 {
			return errors.New("missing path")
		}
		info, err := sh.app.store.Upload(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "uploaded %s (%s)\n", info.Key, storage.FormatSize(info.Size))

	case "save":
		if sh.app.projects == nil {
			return errors.New("project storage is disabled (DB_DRIVER=none)")
		}
		if len(args) == 0 {
			return errors.New("missing project name")
		}
		name := strings.Join(args, " ")
		return sh.do(ctx, func(ctx context.Context, st *session.State) error {
			if _, err := st.UpdateMaster(ctx); err != nil {
				return err
			}
			_, err := sh.app.projects.Save(ctx, name, st.Mixdown.MasterPath(), st.Timeline)
			if err == nil {
				fmt.Fprintln(sh.out, "saved", name)
			}
			return err
		})

	default:
		return fmt.Errorf("unknown command %q, type help", name)
	}
	return nil
}

func (sh *shell) printTracks(snap session.Snapshot) {
	for i, tr := range snap.Tracks {
		mark := " "
		if tr.Selected {
			mark = "*"
		}
		fmt.Fprintf(sh.out, "%s%2d %s\n", mark, i+1, tr.Title)
		for j, c := range tr.Clips {
			fmt.Fprintf(sh.out, "     %d. %s  %.2fs - %.2fs\n", j+1, c.Name, c.Start, c.End)
		}
	}
	fmt.Fprintf(sh.out, "longest clip ends at %.2fs, master %.2fs\n", snap.MaxEnd, snap.MasterSeconds)
}
