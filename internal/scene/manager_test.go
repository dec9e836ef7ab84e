package scene

import (
	"errors"
	"testing"
	"time"

	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"github.com/dropbear/bridge/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T, strict bool, delay time.Duration) (*host.Host, *Manager) {
	t.Helper()
	h := host.New(host.Options{ScenesDir: "testdata/scenes", LoadDelay: delay}, zap.NewNop())
	t.Cleanup(h.Close)
	reg, err := handles.Init(h.Handles(), ffi.Policy{Strict: strict}, zap.NewNop())
	require.NoError(t, err)
	return h, NewManager(h, h, reg, zap.NewNop())
}

func waitReady(t *testing.T, h *Handle) {
	t.Helper()
	require.Eventually(t, func() bool {
		done, err := h.IsComplete()
		return err == nil && done
	}, 2*time.Second, 5*time.Millisecond)
}

func TestManager_PrematureSwitchIsAlwaysRaised(t *testing.T) {
	for _, strict := range []bool{true, false} {
		h, m := newManager(t, strict, 40*time.Millisecond)

		load, err := m.LoadAsync("level2")
		require.NoError(t, err)
		status, err := load.Status()
		require.NoError(t, err)
		require.Equal(t, ffi.ScenePending, status)

		for i := 0; i < 3; i++ {
			err := m.SwitchTo(load)
			require.Error(t, err, "strict=%v attempt %d", strict, i)
			assert.ErrorIs(t, err, ErrPrematureSwitch)
			assert.True(t, ffi.IsProtocolViolation(err))
		}
		assert.Empty(t, h.DrainCommands())

		waitReady(t, load)
		require.NoError(t, m.SwitchTo(load))
		cmds := h.DrainCommands()
		require.Len(t, cmds, 1)
		assert.Equal(t, "level2", cmds[0].Scene.Name)
	}
}

func TestManager_ProgressAndDedupe(t *testing.T) {
	_, m := newManager(t, true, 20*time.Millisecond)

	a, err := m.LoadAsync("level2")
	require.NoError(t, err)
	b, err := m.LoadAsync("level2")
	require.NoError(t, err)
	assert.Equal(t, a.ID(), b.ID())
	assert.Equal(t, "level2", b.Name())

	p, err := a.Progress()
	require.NoError(t, err)
	assert.LessOrEqual(t, p.Fraction(), 1.0)

	waitReady(t, a)
	p, err = a.Progress()
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Fraction())
	assert.Equal(t, "Ready", p.Message)
	failed, err := a.HasFailed()
	require.NoError(t, err)
	assert.False(t, failed)
}

func TestManager_FailedLoad(t *testing.T) {
	_, m := newManager(t, false, 0)

	load, err := m.LoadAsync("nowhere")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		failed, err := load.HasFailed()
		return err == nil && failed
	}, 2*time.Second, 5*time.Millisecond)

	p, err := load.Progress()
	require.NoError(t, err)
	assert.NotEmpty(t, p.Message)

	// Lenient: a failed switch is logged and swallowed.
	assert.NoError(t, m.SwitchTo(load))
}

func TestManager_StrictSurfacesFailures(t *testing.T) {
	_, m := newManager(t, true, 0)

	load, err := m.LoadAsync("corrupt")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		failed, _ := load.HasFailed()
		return failed
	}, 2*time.Second, 5*time.Millisecond)

	err = m.SwitchTo(load)
	require.Error(t, err)
	assert.ErrorIs(t, err, ffi.ErrGenericAsset)
	assert.False(t, errors.Is(err, ErrPrematureSwitch))

	err = m.SwitchToImmediate("nowhere")
	assert.ErrorIs(t, err, ffi.ErrAssetNotFound)

	_, err = m.LoadAsync("")
	assert.ErrorIs(t, err, ffi.ErrInvalidArgument)
}

func TestManager_LoadingSceneAndImmediate(t *testing.T) {
	h, m := newManager(t, true, 20*time.Millisecond)

	load, err := m.LoadAsyncWithLoading("level2", "loading")
	require.NoError(t, err)
	cmds := h.DrainCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "loading", cmds[0].Scene.Name)
	waitReady(t, load)

	require.NoError(t, m.SwitchToImmediate("level1"))
	cmds = h.DrainCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "level1", cmds[0].Scene.Name)
}

func TestHandle_Nil(t *testing.T) {
	var h *Handle
	status, err := h.Status()
	require.NoError(t, err)
	assert.Equal(t, ffi.SceneFailed, status)

	_, m := newManager(t, false, 0)
	assert.True(t, ffi.IsProtocolViolation(m.SwitchTo(nil)))
}
