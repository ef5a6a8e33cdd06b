package flow

import (
	"fmt"
	"math"
	"time"
)

// Default timebox policy for agent steps. The durations are advisory UI
// guidance, not transport-level cancellation.
const (
	DefaultSoftWarning = 4*time.Minute + 30*time.Second
	DefaultHardStop    = 5 * time.Minute
	DefaultWrapUpLine  = "Sorry we're out of time for this question, go ahead and click to score & advance."
)

// Timebox holds the resolved timing policy for a single step.
type Timebox struct {
	SoftWarning time.Duration
	HardStop    time.Duration
	WrapUpLine  string
}

// DeriveTimebox resolves the timebox policy for a step, applying defaults for
// any override the step does not carry.
func DeriveTimebox(step Step) Timebox {
	tb := Timebox{
		SoftWarning: DefaultSoftWarning,
		HardStop:    DefaultHardStop,
		WrapUpLine:  DefaultWrapUpLine,
	}
	if step.SoftWarningMs > 0 {
		tb.SoftWarning = time.Duration(step.SoftWarningMs) * time.Millisecond
	}
	if step.HardStopMs > 0 {
		tb.HardStop = time.Duration(step.HardStopMs) * time.Millisecond
	}
	if step.WrapUpLine != "" {
		tb.WrapUpLine = step.WrapUpLine
	}
	return tb
}

// FormatClock renders a remaining duration as "m:ss", clamping at 0:00.
func FormatClock(remaining time.Duration) string {
	totalSeconds := int(math.Round(remaining.Seconds()))
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}
