package app

import (
	"time"

	"github.com/sweeney/button-blinky/internal/status"
)

// Fixed timing and sizing. Only the hardware selection is configurable.
const (
	DebounceDelay = 50 * time.Millisecond
	BlinkPeriod   = 500 * time.Millisecond
	QueueDepth    = 4
	ConsumerWait  = 100 * time.Millisecond

	StackSize      = 1024
	Priority       = 7
	ShellStackSize = 2048
	ShellPriority  = 14
)

// Task names as reported by "log tasks".
const (
	TaskWorkQueue = "sysworkq"
	TaskButton    = "button"
	TaskShell     = "shell"
)

func statusConfig() status.Config {
	return status.Config{
		DebounceMs:     DebounceDelay.Milliseconds(),
		BlinkMs:        BlinkPeriod.Milliseconds(),
		ConsumerWaitMs: ConsumerWait.Milliseconds(),
		QueueDepth:     QueueDepth,
	}
}
