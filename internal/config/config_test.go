package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[bridge]
profile = "production"

[simulation]
physics_step = "10ms"

[scenes]
initial = "level1"
load_delay = "50ms"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Bridge.StrictMode(), "production forces strict")
	assert.False(t, cfg.Bridge.Strict)
	assert.Equal(t, 10*time.Millisecond, cfg.Simulation.PhysicsStep)
	assert.Equal(t, 60, cfg.Simulation.FrameRate)
	assert.Equal(t, "level1", cfg.Scenes.Initial)
	assert.Equal(t, 50*time.Millisecond, cfg.Scenes.LoadDelay)
	assert.Equal(t, "lua", cfg.Scripting.Registry)
}

func TestLoad_EnvPath(t *testing.T) {
	path := writeConfig(t, "[logging]\nlevel = \"debug\"\n")
	t.Setenv(EnvPath, path)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Bridge.StrictMode())
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad toml":      "[bridge\n",
		"bad registry":  "[scripting]\nregistry = \"jar\"\n",
		"zero step":     "[simulation]\nphysics_step = \"0s\"\n",
		"bad profile":   "[bridge]\nprofile = \"staging\"\n",
		"no scene":      "[scenes]\ninitial = \"\"\n",
		"negative rate": "[simulation]\nframe_rate = -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestSimulation_FrameTime(t *testing.T) {
	assert.Equal(t, time.Second/60, SimulationConfig{FrameRate: 60}.FrameTime())
	assert.Zero(t, SimulationConfig{}.FrameTime())
}
