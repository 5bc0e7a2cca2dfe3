package env

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/joho/godotenv"
)

const (
	ModeVar    = "ENTRYKIT_ENV"
	TimeoutVar = "ENTRYKIT_RENDER_TIMEOUT"
)

// Load reads .env files into the process environment. Missing files are
// ignored; variables already set win.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env: %w", err)
	}
	return nil
}

func DetectMode() core.Mode {
	if strings.EqualFold(strings.TrimSpace(os.Getenv(ModeVar)), "production") {
		return core.ModeProduction
	}
	return core.ModeDevelopment
}

// RenderTimeout is the sandbox execution limit from the environment, or
// the runner default.
func RenderTimeout() (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(TimeoutVar))
	if v == "" {
		return jsvm.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", TimeoutVar, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", TimeoutVar)
	}
	return d, nil
}
