package logging_test

import (
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vibex/vibectx/internal/logging"
)

func TestNew_Level(t *testing.T) {
	if got := logging.New("debug").GetLevel(); got != log.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
	if got := logging.New("error").GetLevel(); got != log.ErrorLevel {
		t.Errorf("level = %v, want error", got)
	}
}

func TestNew_UnknownLevelFallsBack(t *testing.T) {
	if got := logging.New("chatty").GetLevel(); got != log.InfoLevel {
		t.Errorf("level = %v, want info fallback", got)
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(logging.EnvLogLevel, "warn")
	if got := logging.New("debug").GetLevel(); got != log.WarnLevel {
		t.Errorf("level = %v, want env override to warn", got)
	}
}
