package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/dropbear/bridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "dropbear", cmd.Use)
	for _, name := range []string{"run", "check"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	frames := run.Flags().Lookup("frames")
	require.NotNil(t, frames)
	assert.Equal(t, "n", frames.Shorthand)
	assert.Equal(t, "0", frames.DefValue)
	require.NotNil(t, run.Flags().Lookup("profile"))

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
}

func TestCheck(t *testing.T) {
	out, _, err := execute(t, "check", "--config", "testdata/static.toml")
	require.NoError(t, err)
	assert.Contains(t, out, "scene    arena")
	assert.Contains(t, out, "static registry")
	assert.Contains(t, out, "ok")

	out, _, err = execute(t, "check", "--config", "testdata/lua.toml")
	require.NoError(t, err)
	assert.Contains(t, out, "tags=[patrol countdown]")
}

func TestCheck_ReportsProblems(t *testing.T) {
	_, errOut, err := execute(t, "check", "--config", "testdata/missing_scene.toml")
	require.Error(t, err)
	assert.Contains(t, errOut, `initial scene "lobby" not found`)

	_, _, err = execute(t, "check", "--config", "testdata/nope.toml")
	assert.Error(t, err)
}

func TestRun_FrameLimit(t *testing.T) {
	_, _, err := execute(t, "run", "--config", "testdata/static.toml", "--frames", "3")
	require.NoError(t, err)

	_, _, err = execute(t, "run", "-c", "testdata/lua.toml", "-n", "3")
	require.NoError(t, err)
}

func TestRun_MissingInitialScene(t *testing.T) {
	_, _, err := execute(t, "run", "--config", "testdata/missing_scene.toml", "--frames", "1")
	assert.ErrorContains(t, err, "initial scene")
}

func TestSession_StaticScriptsMove(t *testing.T) {
	cfg, err := config.Load("testdata/static.toml")
	require.NoError(t, err)
	s, err := openSession(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.close()
	require.NoError(t, s.enter("arena"))

	assert.Equal(t, []string{"countdown", "patrol"}, s.stage.Tags())
	assert.Equal(t, 2, s.scripts.TotalSystems())
	require.NoError(t, s.loop.Run(context.Background(), 5))
	assert.Equal(t, uint64(5), s.loop.Frames())
	assert.False(t, s.loop.Stopped(), "countdown has not elapsed")
}

func TestNewRegistry_Unknown(t *testing.T) {
	_, err := newRegistry(config.ScriptingConfig{Registry: "jar"}, zap.NewNop())
	assert.Error(t, err)
}
