// Package console implements the interactive inspection shell. Each input
// line is parsed as a cobra command line, e.g. "log tasks".
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/button-blinky/internal/status"
	"github.com/sweeney/button-blinky/internal/tasks"
)

// Prompt is printed before each command.
const Prompt = "blinky:~$ "

// Presser drives a simulated button.
type Presser interface {
	Press(at time.Time) bool
	Release(at time.Time) bool
}

// Shell executes console commands against the running pipeline.
type Shell struct {
	reg     *tasks.Registry
	tracker *status.Tracker
	button  Presser
}

// New creates a Shell. button may be nil, in which case the "button"
// commands are not offered.
func New(reg *tasks.Registry, tracker *status.Tracker, button Presser) *Shell {
	return &Shell{reg: reg, tracker: tracker, button: button}
}

// Command builds a fresh command tree. A new tree is built per line so flag
// state never leaks between commands.
func (s *Shell) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "blinky",
		Short:         "Inspect the running pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(s.newLogCommand())
	if s.button != nil {
		root.AddCommand(s.newButtonCommand())
	}
	return root
}

func (s *Shell) newLogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tasks",
		Short: "Show the tasks in execution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), s.reg.Report())
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stack",
		Short: "Show the stack budget of the shell task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, ok := tasks.Current(cmd.Context())
			if !ok {
				return fmt.Errorf("stack: shell is not running as a task")
			}
			_, err := io.WriteString(cmd.OutOrStdout(), tasks.StackReport(info))
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show pipeline counters as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := out.Write(status.FormatJSON(s.tracker.Snapshot())); err != nil {
				return err
			}
			_, err := io.WriteString(out, "\n")
			return err
		},
	})
	return cmd
}

func (s *Shell) newButtonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "button",
		Short: "Drive the simulated button",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "press",
		Short: "Press the button",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.button.Press(time.Now())
			fmt.Fprintln(cmd.OutOrStdout(), "button pressed")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "release",
		Short: "Release the button",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.button.Release(time.Now())
			fmt.Fprintln(cmd.OutOrStdout(), "button released")
			return nil
		},
	})
	return cmd
}

// Exec runs one command line, writing its output to out.
func (s *Shell) Exec(ctx context.Context, line string, out io.Writer) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd := s.Command()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(""))
	return cmd.ExecuteContext(ctx)
}

// Run reads commands from in until ctx is cancelled or in reaches EOF.
// Command errors are printed and never end the shell.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		io.WriteString(out, Prompt)
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				log.WithError(err).Warn("console input failed; shell stopped")
			}
			return nil
		case line := <-lines:
			if err := s.Exec(ctx, line, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}
