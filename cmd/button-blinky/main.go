// Command button-blinky blinks an LED and prints the live task list each time
// the button is pressed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/button-blinky/internal/app"
	"github.com/sweeney/button-blinky/internal/console"
	"github.com/sweeney/button-blinky/internal/gpio"
	"github.com/sweeney/button-blinky/internal/report"
)

type options struct {
	chip       string
	buttonLine int
	ledLine    int
	activeLow  bool
	simulate   bool
	console    bool
	logReports bool
	printState bool
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "button-blinky",
		Short:         "Blink an LED and dump running tasks on button press",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.chip, "chip", gpio.DefaultChip, "GPIO chip name")
	f.IntVar(&opts.buttonLine, "button-line", gpio.DefaultButtonLine, "line offset of the button")
	f.IntVar(&opts.ledLine, "led-line", gpio.DefaultLEDLine, "line offset of the LED (-1 for none)")
	f.BoolVar(&opts.activeLow, "active-low", true, "button pulls the line low when pressed")
	f.BoolVar(&opts.simulate, "simulate", false, "use simulated lines; press the button from the console")
	f.BoolVar(&opts.console, "console", false, "read shell commands from stdin")
	f.BoolVar(&opts.logReports, "log-reports", false, "send task reports to the log instead of stdout")
	f.BoolVar(&opts.printState, "print-state", false, "print the button level and exit")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(opts *options, in io.Reader, out io.Writer) error {
	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}

	dev, presser := devices(opts)

	if opts.printState {
		return printState(dev.Button, out)
	}

	var sink report.Sink = report.NewWriterSink(out)
	if opts.logReports {
		sink = report.NewLogSink(log.WithField("source", "report"))
	}

	a, err := app.Start(context.Background(), dev, app.Options{Sink: sink})
	if err != nil {
		return err
	}
	if opts.console {
		a.StartConsole(in, out, presser)
	}

	log.WithFields(log.Fields{
		"chip":     opts.chip,
		"button":   opts.buttonLine,
		"led":      opts.ledLine,
		"simulate": opts.simulate,
	}).Info("started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(a, sigCh)
}

// runLoop blocks until a signal arrives or a task fails, then shuts the
// pipeline down.
func runLoop(a *app.App, sig <-chan os.Signal) error {
	select {
	case s := <-sig:
		log.Infof("received %v, shutting down", s)
	case <-a.Registry.Context().Done():
		log.Warn("task failed, shutting down")
	}
	return a.Stop()
}

// devices builds the lines for the selected mode. The presser is only set
// when simulating.
func devices(opts *options) (app.Devices, console.Presser) {
	if opts.simulate {
		btn := gpio.NewFakeInput()
		dev := app.Devices{Button: btn}
		if opts.ledLine >= 0 {
			dev.LED = gpio.NewFakeOutput()
		}
		return dev, btn
	}

	dev := app.Devices{Button: gpio.NewRealInput(opts.chip, opts.buttonLine, opts.activeLow)}
	if opts.ledLine >= 0 {
		dev.LED = gpio.NewRealOutput(opts.chip, opts.ledLine)
	}
	return dev, nil
}

func printState(btn gpio.Input, out io.Writer) error {
	if !btn.Ready() {
		return fmt.Errorf("button: %w", app.ErrDeviceNotReady)
	}
	if err := btn.Configure(); err != nil {
		return fmt.Errorf("configure button: %w", err)
	}
	defer btn.Close()

	pressed, err := btn.Read()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	fmt.Fprintf(out, "button: %s (%s)\n", stateString(pressed), time.Now().Format(time.RFC3339))
	return nil
}

func stateString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
