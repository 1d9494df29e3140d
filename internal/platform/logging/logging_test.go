package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewHonoursLevel(t *testing.T) {
	cases := []struct {
		env, level string
		debug      bool
		warn       bool
	}{
		{env: "production", level: "warn", debug: false, warn: true},
		{env: "development", level: "debug", debug: true, warn: true},
		{env: "development", level: "", debug: true, warn: true},
		{env: "production", level: "", debug: false, warn: true},
		{env: "production", level: "error", debug: false, warn: false},
	}
	for _, tc := range cases {
		logger, err := New(tc.env, tc.level)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.env, tc.level, err)
		}
		core := logger.Core()
		if got := core.Enabled(zap.DebugLevel); got != tc.debug {
			t.Fatalf("%s/%s: debug enabled = %v", tc.env, tc.level, got)
		}
		if got := core.Enabled(zap.WarnLevel); got != tc.warn {
			t.Fatalf("%s/%s: warn enabled = %v", tc.env, tc.level, got)
		}
	}
}
