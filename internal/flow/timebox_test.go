package flow

import (
	"testing"
	"time"
)

func TestDeriveTimeboxDefaults(t *testing.T) {
	tb := DeriveTimebox(Step{})
	if tb.SoftWarning != DefaultSoftWarning {
		t.Errorf("soft warning default mismatch: %v", tb.SoftWarning)
	}
	if tb.HardStop != DefaultHardStop {
		t.Errorf("hard stop default mismatch: %v", tb.HardStop)
	}
	if tb.WrapUpLine != DefaultWrapUpLine {
		t.Errorf("wrap-up line default mismatch: %q", tb.WrapUpLine)
	}
}

func TestDeriveTimeboxOverrides(t *testing.T) {
	step := Step{SoftWarningMs: 60_000, HardStopMs: 90_000, WrapUpLine: "Time is up."}
	tb := DeriveTimebox(step)
	if tb.SoftWarning != time.Minute {
		t.Errorf("soft warning override mismatch: %v", tb.SoftWarning)
	}
	if tb.HardStop != 90*time.Second {
		t.Errorf("hard stop override mismatch: %v", tb.HardStop)
	}
	if tb.WrapUpLine != "Time is up." {
		t.Errorf("wrap-up line override mismatch: %q", tb.WrapUpLine)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      string
	}{
		{5 * time.Minute, "5:00"},
		{4*time.Minute + 30*time.Second, "4:30"},
		{61 * time.Second, "1:01"},
		{9 * time.Second, "0:09"},
		{500 * time.Millisecond, "0:01"},
		{0, "0:00"},
		{-3 * time.Second, "0:00"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.remaining); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.remaining, got, tc.want)
		}
	}
}
