package cli

import (
	"log/slog"
	"testing"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		debug, quiet bool
		want         slog.Level
	}{
		{false, false, slog.LevelInfo},
		{false, true, slog.LevelWarn},
		{true, false, slog.LevelDebug},
		{true, true, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := levelFor(tt.debug, tt.quiet); got != tt.want {
			t.Errorf("levelFor(%v, %v) = %v, want %v", tt.debug, tt.quiet, got, tt.want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "singularity", "docker"); got != "singularity" {
		t.Fatalf("firstNonEmpty = %q, want singularity", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("firstNonEmpty = %q, want empty", got)
	}
}
