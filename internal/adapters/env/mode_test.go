package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/3-lines-studio/entrykit/internal/adapters/jsvm"
	"github.com/3-lines-studio/entrykit/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMode(t *testing.T) {
	tests := []struct {
		value string
		want  core.Mode
	}{
		{"", core.ModeDevelopment},
		{"development", core.ModeDevelopment},
		{"production", core.ModeProduction},
		{" Production ", core.ModeProduction},
		{"staging", core.ModeDevelopment},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(ModeVar, tt.value)
			assert.Equal(t, tt.want, DetectMode())
		})
	}
}

func TestRenderTimeout(t *testing.T) {
	t.Setenv(TimeoutVar, "")
	d, err := RenderTimeout()
	require.NoError(t, err)
	assert.Equal(t, jsvm.DefaultTimeout, d)

	t.Setenv(TimeoutVar, "250ms")
	d, err = RenderTimeout()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	t.Setenv(TimeoutVar, "soon")
	_, err = RenderTimeout()
	assert.Error(t, err)

	t.Setenv(TimeoutVar, "-1s")
	_, err = RenderTimeout()
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENTRYKIT_ENV=production\n"), 0o644))

	t.Setenv(ModeVar, "")
	require.NoError(t, os.Unsetenv(ModeVar))
	require.NoError(t, Load(path))
	assert.Equal(t, core.ModeProduction, DetectMode())

	assert.NoError(t, Load(filepath.Join(t.TempDir(), "missing.env")))
}
