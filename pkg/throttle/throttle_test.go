package throttle

import (
	"errors"
	"math"
	"testing"
)

func newController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

// drain empties the queue directly, bypassing the send limiter.
func drain(c *Controller) []string {
	var out []string
	for {
		cmd, ok := c.queue.Dequeue()
		if !ok {
			return out
		}
		out = append(out, cmd.String())
	}
}

func hold(c *Controller, duty uint8, ticks int) {
	for i := 0; i < ticks; i++ {
		c.Update(duty)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStableDutyEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	c := newController(t, cfg)

	type sent struct {
		tick int
		text string
	}
	var got []sent
	for tick := 1; tick <= 90; tick++ {
		if cmd, ok := c.Tick(50); ok {
			got = append(got, sent{tick, cmd.String()})
		}
	}

	want := []sent{{5, "ISET1:2.00"}, {10, "OUT1"}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	s := c.State()
	if !s.OutputEnabled || s.Applied != 50 || s.Current != 2.0 {
		t.Errorf("unexpected state %+v", s)
	}
}

func TestNoActionBeforeWindowFull(t *testing.T) {
	c := newController(t, DefaultConfig())
	if c.Update(50) {
		t.Error("first sample should not fill a window of 2")
	}
	if !c.Update(50) {
		t.Error("second identical sample should apply")
	}
	if c.Update(50) {
		t.Error("unchanged stable duty should not re-apply")
	}
}

func TestOverdueForcesDecision(t *testing.T) {
	cfg := DefaultConfig()
	c := newController(t, cfg)

	for tick := 1; tick < cfg.MaxTicksBetweenUpdate; tick++ {
		if c.Update(uint8(20 + tick%2)) {
			t.Fatalf("tick %d: unstable window should not apply", tick)
		}
	}
	if !c.Update(20) {
		t.Fatal("expected forced decision when overdue")
	}
	if s := c.State(); !s.Overdue || s.Applied != 20 {
		t.Errorf("expected overdue apply of 20, got %+v", s)
	}
	if got := drain(c); !equalStrings(got, []string{"ISET1:0.50", "OUT1"}) {
		t.Errorf("unexpected commands %v", got)
	}

	// The counter restarts after a forced update.
	for tick := 1; tick < cfg.MaxTicksBetweenUpdate; tick++ {
		if c.Update(uint8(30 + tick%2)) {
			t.Fatalf("tick %d: expected no update before the next deadline", tick)
		}
	}
	if !c.Update(30) {
		t.Error("expected second forced decision")
	}
}

func TestOverdueResendsUnchangedValue(t *testing.T) {
	cfg := DefaultConfig()
	c := newController(t, cfg)
	hold(c, 50, 2)
	drain(c)

	hold(c, 50, cfg.MaxTicksBetweenUpdate-1)
	if c.queue.Len() != 0 {
		t.Fatal("expected no resend before the deadline")
	}
	c.Update(50)
	// Output is already enabled, so only the current is refreshed.
	if got := drain(c); !equalStrings(got, []string{"ISET1:2.00"}) {
		t.Errorf("expected resend of current, got %v", got)
	}
}

func TestOutputOnHysteresis(t *testing.T) {
	c := newController(t, DefaultConfig())
	hold(c, 50, 2)
	if got := drain(c); !equalStrings(got, []string{"ISET1:2.00", "OUT1"}) {
		t.Errorf("unexpected first batch %v", got)
	}
	hold(c, 60, 2)
	if got := drain(c); !equalStrings(got, []string{"ISET1:2.50"}) {
		t.Errorf("expected no second OUT1, got %v", got)
	}
	hold(c, 95, 2)
	if got := drain(c); !equalStrings(got, []string{"ISET1:4.00"}) {
		t.Errorf("expected clamp to max without OUT1, got %v", got)
	}
}

func TestLowDutyDisables(t *testing.T) {
	c := newController(t, DefaultConfig())
	hold(c, 50, 2)
	drain(c)

	hold(c, 5, 2)
	want := []string{"OUT0", "ISET1:0.10", "VSET1:20.00"}
	if got := drain(c); !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if c.State().OutputEnabled {
		t.Error("output should be disabled")
	}

	hold(c, 50, 2)
	if got := drain(c); !equalStrings(got, []string{"ISET1:2.00", "OUT1"}) {
		t.Errorf("expected re-enable, got %v", got)
	}
}

func TestHighDutyFromDisabled(t *testing.T) {
	c := newController(t, DefaultConfig())
	hold(c, 100, 2)
	if got := drain(c); !equalStrings(got, []string{"OUT1", "ISET1:4.00"}) {
		t.Errorf("unexpected commands %v", got)
	}
}

func TestBandEdges(t *testing.T) {
	tests := []struct {
		duty uint8
		want []string
	}{
		{9, []string{"OUT0", "ISET1:0.10", "VSET1:20.00"}},
		{10, []string{"ISET1:0.00", "OUT1"}},
		{89, []string{"ISET1:3.95", "OUT1"}},
		{90, []string{"OUT1", "ISET1:4.00"}},
	}
	for _, tt := range tests {
		c := newController(t, DefaultConfig())
		hold(c, tt.duty, 2)
		if got := drain(c); !equalStrings(got, tt.want) {
			t.Errorf("duty %d: expected %v, got %v", tt.duty, tt.want, got)
		}
	}
}

func TestBusyQueueDefersDecision(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTicksBetweenSend = 1
	c := newController(t, cfg)

	hold(c, 5, 2)  // 3 queued
	hold(c, 50, 2) // 2 queued, full
	if !c.queue.Full() {
		t.Fatalf("expected full queue, have %d", c.queue.Len())
	}

	hold(c, 60, 3)
	if s := c.State(); s.Applied != 50 || s.Queued != 5 {
		t.Fatalf("expected deferred decision, got %+v", s)
	}

	c.Next()
	c.Next()
	if !c.Update(60) {
		t.Fatal("expected deferred decision to apply once space frees")
	}
	if s := c.State(); s.Applied != 60 || s.Dropped != 0 {
		t.Errorf("unexpected state %+v", s)
	}
}

func TestOverflowEvictsOldestCommand(t *testing.T) {
	c := newController(t, DefaultConfig())
	hold(c, 50, 2) // ISET1:2.00 OUT1
	hold(c, 60, 2) // ISET1:2.50
	hold(c, 5, 2)  // 3 more with only 2 free

	if s := c.State(); s.Dropped != 1 || s.OutputEnabled {
		t.Errorf("expected one drop and output disabled, got %+v", s)
	}
	want := []string{"OUT1", "ISET1:2.50", "OUT0", "ISET1:0.10", "VSET1:20.00"}
	if got := drain(c); !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSendRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	c := newController(t, cfg)

	// Idle long enough for the send counter to saturate.
	for i := 0; i < 1000; i++ {
		if _, ok := c.Next(); ok {
			t.Fatal("unexpected command from empty queue")
		}
	}
	hold(c, 5, 2)
	var sentAt []int
	for tick := 1; tick <= 20; tick++ {
		if _, ok := c.Next(); ok {
			sentAt = append(sentAt, tick)
		}
	}
	want := []int{1, 6, 11}
	if len(sentAt) != len(want) {
		t.Fatalf("expected sends at %v, got %v", want, sentAt)
	}
	for i := range want {
		if sentAt[i] != want[i] {
			t.Errorf("expected sends at %v, got %v", want, sentAt)
			break
		}
	}
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		duty uint8
		want float64
	}{
		{10, 0},
		{50, 2.0},
		{60, 2.5},
		{90, 4.0},
	}
	for _, tt := range tests {
		if got := Current(tt.duty, 4.0); got != tt.want {
			t.Errorf("Current(%d): expected %v, got %v", tt.duty, tt.want, got)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.WindowSize = 0
	if err := cfg.Validate(); !errors.Is(err, ErrTickCount) {
		t.Errorf("expected ErrTickCount, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.QueueSize = 2
	if _, err := NewController(cfg); !errors.Is(err, ErrQueueSize) {
		t.Errorf("expected ErrQueueSize, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.CurrentMax = 0
	if err := cfg.Validate(); !errors.Is(err, ErrCurrent) {
		t.Errorf("expected ErrCurrent, got %v", err)
	}
}

func TestConfigRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		set  func(*Config)
		want error
	}{
		{"nan current", func(c *Config) { c.CurrentMax = math.NaN() }, ErrCurrent},
		{"infinite current", func(c *Config) { c.CurrentMax = math.Inf(1) }, ErrCurrent},
		{"huge current", func(c *Config) { c.CurrentMax = 1e17 }, ErrCurrent},
		{"negative floor", func(c *Config) { c.CurrentFloor = -0.1 }, ErrCurrent},
		{"nan floor", func(c *Config) { c.CurrentFloor = math.NaN() }, ErrCurrent},
		{"negative voltage", func(c *Config) { c.VoltageSet = -5 }, ErrVoltage},
		{"zero voltage", func(c *Config) { c.VoltageSet = 0 }, ErrVoltage},
		{"nan voltage", func(c *Config) { c.VoltageSet = math.NaN() }, ErrVoltage},
		{"huge voltage", func(c *Config) { c.VoltageSet = 5000 }, ErrVoltage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.set(&cfg)
			if _, err := NewController(cfg); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.CurrentMax = MaxCurrentSetting
	cfg.VoltageSet = MaxVoltageSetting
	if err := cfg.Validate(); err != nil {
		t.Errorf("limits should be accepted: %v", err)
	}
}

func TestTicks(t *testing.T) {
	if got := Ticks(20e6, 10e6); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := Ticks(1e9, 0); got != 0 {
		t.Errorf("expected 0 for zero tick, got %d", got)
	}
}
