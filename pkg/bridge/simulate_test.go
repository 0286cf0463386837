package bridge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mikesmitty/pwm-scpi/pkg/throttle"
)

func TestSimulate(t *testing.T) {
	var buf bytes.Buffer
	err := simulate(&buf, throttle.DefaultConfig(), []uint8{50, 5}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"     5 duty=50  ISET1:2.00",
		"    10 duty=50  OUT1",
		"    32 duty=5   OUT0",
		"    37 duty=5   ISET1:0.10",
		"    42 duty=5   VSET1:20.00",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(got), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSimulateInvalidConfig(t *testing.T) {
	cfg := throttle.DefaultConfig()
	cfg.QueueSize = 1
	if err := simulate(&bytes.Buffer{}, cfg, []uint8{50}, 1); err == nil {
		t.Error("expected config error")
	}
}
