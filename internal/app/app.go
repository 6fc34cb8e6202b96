// Package app wires the button pipeline and the LED blinker together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-blinky/internal/blink"
	"github.com/sweeney/button-blinky/internal/button"
	"github.com/sweeney/button-blinky/internal/clock"
	"github.com/sweeney/button-blinky/internal/console"
	"github.com/sweeney/button-blinky/internal/gpio"
	"github.com/sweeney/button-blinky/internal/report"
	"github.com/sweeney/button-blinky/internal/sched"
	"github.com/sweeney/button-blinky/internal/status"
	"github.com/sweeney/button-blinky/internal/tasks"
)

var (
	// ErrDeviceNotReady is returned when the button device cannot be used.
	ErrDeviceNotReady = errors.New("device not ready")

	// ErrConfiguration is returned when the button line cannot be
	// configured for input or interrupts.
	ErrConfiguration = errors.New("configuration failed")
)

// Devices are the lines the pipeline drives.
type Devices struct {
	Button gpio.Input
	LED    gpio.Output // optional
}

// Options are the collaborators Start needs besides the devices.
type Options struct {
	// Clock drives the debounce and blink timers. Defaults to clock.Real.
	Clock clock.Clock

	// Sink receives task reports. Required.
	Sink report.Sink
}

// App is a running pipeline.
type App struct {
	Registry  *tasks.Registry
	Tracker   *status.Tracker
	Work      *sched.WorkQueue
	Events    *button.Queue
	Debouncer *button.Debouncer
	Consumer  *button.Consumer
	Blink     *blink.Toggler // nil when the LED is unavailable

	devices Devices
	cancel  context.CancelFunc
}

// Start brings up the pipeline. An unavailable button aborts startup and
// starts nothing; an unavailable LED only disables blinking.
//
// Order: button ready, configured as input, edge callback registered,
// interrupt enabled; then the LED and its timer; then the tasks.
func Start(ctx context.Context, dev Devices, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Sink == nil {
		return nil, errors.New("app: no report sink")
	}
	if dev.Button == nil || !dev.Button.Ready() {
		log.Error("button device is not ready")
		return nil, fmt.Errorf("button: %w", ErrDeviceNotReady)
	}
	if err := dev.Button.Configure(); err != nil {
		log.WithError(err).Error("failed to configure button")
		return nil, fmt.Errorf("configure button: %w: %w", ErrConfiguration, err)
	}

	clk := opts.Clock
	tracker := status.NewTracker(clk.Now(), statusConfig())
	wq := sched.NewWorkQueue()
	events := button.NewQueue(QueueDepth)
	deb := button.NewDebouncer(wq, clk, dev.Button, events, DebounceDelay, tracker)

	if err := dev.Button.RegisterEdgeCallback(deb.OnEdge, gpio.EdgeToActive); err != nil {
		dev.Button.Close()
		return nil, fmt.Errorf("register button callback: %w: %w", ErrConfiguration, err)
	}
	if err := dev.Button.EnableInterrupt(); err != nil {
		dev.Button.Close()
		return nil, fmt.Errorf("enable button interrupt: %w: %w", ErrConfiguration, err)
	}
	log.Info("set up button")

	ctx, cancel := context.WithCancel(ctx)
	reg := tasks.NewRegistry(ctx)
	a := &App{
		Registry:  reg,
		Tracker:   tracker,
		Work:      wq,
		Events:    events,
		Debouncer: deb,
		devices:   dev,
		cancel:    cancel,
	}

	if setupLED(dev.LED) {
		a.Blink = blink.New(wq, clk, dev.LED, true, tracker)
		a.Blink.Start(BlinkPeriod)
	} else {
		a.devices.LED = nil
	}

	sink := opts.Sink
	a.Consumer = button.NewConsumer(events, ConsumerWait, func(ev button.Event) error {
		log.WithField("seq", ev.Seq).Debug("button pressed, dumping tasks")
		return reg.Dump(sink)
	}, tracker)

	reg.Spawn(TaskWorkQueue, StackSize, Priority, wq.Run)
	reg.Spawn(TaskButton, StackSize, Priority, a.Consumer.Run)

	log.WithFields(log.Fields{
		"debounce": DebounceDelay,
		"blink":    BlinkPeriod,
		"queue":    QueueDepth,
		"led":      a.Blink != nil,
	}).Info("pipeline started")
	return a, nil
}

// setupLED configures the optional LED. Any failure leaves blinking disabled.
func setupLED(led gpio.Output) bool {
	if led == nil {
		log.Info("no LED configured; blinking disabled")
		return false
	}
	if !led.Ready() {
		log.Warn("LED device is not ready; ignoring it")
		return false
	}
	if err := led.Configure(true); err != nil {
		log.WithError(err).Warn("failed to configure LED; ignoring it")
		return false
	}
	log.Info("set up LED")
	return true
}

// StartConsole runs the inspection shell as a task. btn may be nil.
func (a *App) StartConsole(in io.Reader, out io.Writer, btn console.Presser) {
	sh := console.New(a.Registry, a.Tracker, btn)
	a.Registry.Spawn(TaskShell, ShellStackSize, ShellPriority, func(ctx context.Context) error {
		return sh.Run(ctx, in, out)
	})
}

// Wait blocks until every task has returned, then stops the timers and
// releases the devices.
func (a *App) Wait() error {
	err := a.Registry.Wait()

	if a.Blink != nil {
		a.Blink.Stop()
	}
	a.Debouncer.Stop()

	if cerr := a.devices.Button.Close(); cerr != nil {
		log.WithError(cerr).Warn("failed to close button")
	}
	if a.devices.LED != nil {
		if cerr := a.devices.LED.Close(); cerr != nil {
			log.WithError(cerr).Warn("failed to close LED")
		}
	}
	return err
}

// Stop cancels every task and waits for shutdown.
func (a *App) Stop() error {
	a.cancel()
	return a.Wait()
}
