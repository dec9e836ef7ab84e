package host

import (
	"testing"
	"time"

	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/ffi"
	"github.com/dropbear/bridge/internal/handles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHost(t *testing.T, opts Options) (*Host, handles.Payload) {
	t.Helper()
	assets, err := data.LoadAssetTable("testdata/assets.yaml")
	require.NoError(t, err)
	opts.Assets = assets
	if opts.ScenesDir == "" {
		opts.ScenesDir = "testdata/scenes"
	}
	h := New(opts, zap.NewNop())
	t.Cleanup(h.Close)

	scene, err := h.LoadScene("level1")
	require.NoError(t, err)
	require.NoError(t, h.ApplyScene(scene))
	return h, h.Handles()
}

func mustEntity(t *testing.T, h *Host, p handles.Payload, label string) ffi.EntityID {
	t.Helper()
	var id ffi.EntityID
	require.Equal(t, ffi.StatusOK, h.GetEntity(p.World, ffi.BytesOf(label), &id))
	require.True(t, id.Present(), label)
	return id
}

func TestHost_HandleValidation(t *testing.T) {
	h, p := newTestHost(t, Options{})
	var id ffi.EntityID

	assert.Equal(t, ffi.StatusNullPointer, h.GetEntity(ffi.NullHandle, ffi.BytesOf("player"), &id))
	assert.Equal(t, ffi.StatusInvalidHandle, h.GetEntity(p.Physics, ffi.BytesOf("player"), &id))
	assert.Equal(t, ffi.StatusInvalidHandle, h.GetEntity(12345, ffi.BytesOf("player"), &id))

	buf := ffi.NewFixedBuffer(128)
	require.Equal(t, ffi.StatusOK, h.LastError(buf))
	msg, _ := buf.String()
	assert.Contains(t, msg, "get_entity")
	assert.Contains(t, msg, "not a world handle")
}

func TestHost_EntityLookup(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")

	var missing ffi.EntityID
	require.Equal(t, ffi.StatusOK, h.GetEntity(p.World, ffi.BytesOf("nobody"), &missing))
	assert.Equal(t, ffi.AbsentEntity, missing)

	var exists bool
	require.Equal(t, ffi.StatusOK, h.EntityExists(p.World, player, &exists))
	assert.True(t, exists)
	require.Equal(t, ffi.StatusOK, h.EntityExists(p.World, 999, &exists))
	assert.False(t, exists)
	assert.Equal(t, ffi.StatusInvalidEntity, h.EntityExists(p.World, ffi.AbsentEntity, &exists))

	buf := ffi.NewFixedBuffer(2)
	assert.Equal(t, ffi.StatusBufferTooSmall, h.GetEntityLabel(p.World, player, buf))
	assert.Equal(t, len("player"), buf.N)
	buf.Grow()
	require.Equal(t, ffi.StatusOK, h.GetEntityLabel(p.World, player, buf))
	label, _ := buf.String()
	assert.Equal(t, "player", label)
}

func TestHost_LabelsAreNormalized(t *testing.T) {
	h, p := newTestHost(t, Options{})
	id, err := h.SpawnEntity(data.EntitySpec{Label: "caf\u00e9"})
	require.NoError(t, err)

	var got ffi.EntityID
	require.Equal(t, ffi.StatusOK, h.GetEntity(p.World, ffi.BytesOf("cafe\u0301"), &got))
	assert.Equal(t, id, got)
}

func TestHost_HierarchyOutcomes(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	sword := mustEntity(t, h, p, "sword")

	var parent ffi.EntityID
	require.Equal(t, ffi.StatusOK, h.GetParent(p.World, player, &parent))
	assert.Equal(t, ffi.AbsentEntity, parent, "root entity has an absent parent, not a failure")
	require.Equal(t, ffi.StatusOK, h.GetParent(p.World, sword, &parent))
	assert.Equal(t, player, parent)
	assert.Equal(t, ffi.StatusEntityNotFound, h.GetParent(p.World, 4242, &parent))

	var kids ffi.Array[ffi.EntityID]
	require.Equal(t, ffi.StatusOK, h.GetChildren(p.World, sword, &kids))
	assert.True(t, kids.Empty())

	require.Equal(t, ffi.StatusOK, h.GetChildren(p.World, player, &kids))
	assert.Equal(t, []ffi.EntityID{sword}, kids.Data)
	assert.Equal(t, 1, h.LiveArrays())
	assert.Equal(t, ffi.StatusOK, h.FreeArray(kids.ID))
	assert.Equal(t, ffi.StatusDoubleFree, h.FreeArray(kids.ID))
	assert.Equal(t, 0, h.LiveArrays())

	var child ffi.EntityID
	require.Equal(t, ffi.StatusOK, h.GetChildByLabel(p.World, player, ffi.BytesOf("sword"), &child))
	assert.Equal(t, sword, child)
	require.Equal(t, ffi.StatusOK, h.GetChildByLabel(p.World, player, ffi.BytesOf("shield"), &child))
	assert.Equal(t, ffi.AbsentEntity, child)
}

func TestHost_FreedArrayIsPoisoned(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")

	var kids ffi.Array[ffi.EntityID]
	require.Equal(t, ffi.StatusOK, h.GetChildren(p.World, player, &kids))
	view := kids.Data
	require.Equal(t, ffi.StatusOK, h.FreeArray(kids.ID))
	assert.Equal(t, ffi.EntityID(0), view[0])
}

func TestHost_DespawnDetachesChildren(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	sword := mustEntity(t, h, p, "sword")

	require.NoError(t, h.DespawnEntity(player))

	var exists bool
	require.Equal(t, ffi.StatusOK, h.EntityExists(p.World, player, &exists))
	assert.False(t, exists)

	var parent ffi.EntityID
	require.Equal(t, ffi.StatusOK, h.GetParent(p.World, sword, &parent))
	assert.Equal(t, ffi.AbsentEntity, parent)

	// The freed slot is recycled: the old id now answers for the newcomer.
	id, err := h.SpawnEntity(data.EntitySpec{Label: "newcomer"})
	require.NoError(t, err)
	assert.Equal(t, player, id)
}

func TestHost_Properties(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	label := ffi.BytesOf

	var hp int32
	var found bool
	require.Equal(t, ffi.StatusOK, h.GetIntProperty(p.World, player, label("health"), &hp, &found))
	assert.True(t, found)
	assert.Equal(t, int32(100), hp)

	require.Equal(t, ffi.StatusOK, h.GetIntProperty(p.World, player, label("mana"), &hp, &found))
	assert.False(t, found, "missing label is absent, not an error")

	var l int64
	assert.Equal(t, ffi.StatusInvalidArgument, h.GetLongProperty(p.World, player, label("health"), &l, &found))

	v := ffi.Vec3{X: 1.5, Y: -2.25, Z: 1e-3}
	require.Equal(t, ffi.StatusOK, h.SetVec3Property(p.World, player, label("spawn"), v))
	var got ffi.Vec3
	require.Equal(t, ffi.StatusOK, h.GetVec3Property(p.World, player, label("spawn"), &got, &found))
	assert.True(t, found)
	assert.InDelta(t, v.X, got.X, 1e-9)
	assert.InDelta(t, v.Y, got.Y, 1e-9)
	assert.InDelta(t, v.Z, got.Z, 1e-9)

	camera := mustEntity(t, h, p, "camera")
	var exists bool
	require.Equal(t, ffi.StatusOK, h.PropertiesExist(p.World, camera, &exists))
	assert.False(t, exists)
	assert.Equal(t, ffi.StatusNoSuchComponent, h.SetBoolProperty(p.World, camera, label("x"), true))
}

func TestHost_StringPropertyIsScratch(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	require.Equal(t, ffi.StatusOK, h.SetStringProperty(p.World, player, ffi.BytesOf("title"), ffi.BytesOf("Lord")))

	var first, second ffi.Bytes
	var found bool
	require.Equal(t, ffi.StatusOK, h.GetStringProperty(p.World, player, ffi.BytesOf("name"), &first, &found))
	copied, _ := ffi.CopyString(first)
	require.Equal(t, ffi.StatusOK, h.GetStringProperty(p.World, player, ffi.BytesOf("title"), &second, &found))

	assert.Equal(t, "Ayla", copied)
	assert.NotEqual(t, "Ayla", string(first), "an aliased view is overwritten by the next call")
	assert.Equal(t, "Lord", string(second))
}

func TestHost_TransformPropagation(t *testing.T) {
	h, p := newTestHost(t, Options{})
	sword := mustEntity(t, h, p, "sword")

	var world ffi.Transform
	require.Equal(t, ffi.StatusOK, h.PropagateTransform(p.World, sword, &world))
	assert.Equal(t, ffi.Vec3{X: 1, Y: 3, Z: 3}, world.Position)

	player := mustEntity(t, h, p, "player")
	var pt ffi.EntityTransform
	require.Equal(t, ffi.StatusOK, h.GetTransform(p.World, player, &pt))
	pt.Local.Position = ffi.Vec3{}
	require.Equal(t, ffi.StatusOK, h.SetTransform(p.World, player, pt))
	require.Equal(t, ffi.StatusOK, h.PropagateTransform(p.World, sword, &world))
	assert.Equal(t, ffi.Vec3{Y: 1}, world.Position)
}

func TestHost_Camera(t *testing.T) {
	h, p := newTestHost(t, Options{})
	cam := mustEntity(t, h, p, "camera")

	var eye ffi.Vec3
	require.Equal(t, ffi.StatusOK, h.GetCameraVec3(p.World, cam, ffi.CameraEye, &eye))
	assert.Equal(t, ffi.Vec3{Y: 2, Z: -5}, eye)

	require.Equal(t, ffi.StatusOK, h.SetCameraScalar(p.World, cam, ffi.CameraFovY, 75))
	var fov float64
	require.Equal(t, ffi.StatusOK, h.GetCameraScalar(p.World, cam, ffi.CameraFovY, &fov))
	assert.Equal(t, 75.0, fov)

	assert.Equal(t, ffi.StatusInvalidArgument, h.SetCameraScalar(p.World, cam, ffi.CameraAspect, 1))
	assert.Equal(t, ffi.StatusInvalidArgument, h.GetCameraScalar(p.World, cam, ffi.CameraEye, &fov))

	player := mustEntity(t, h, p, "player")
	assert.Equal(t, ffi.StatusNoSuchComponent, h.GetCameraVec3(p.World, player, ffi.CameraEye, &eye))
}

func TestHost_MeshRendererAndAssets(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")

	var hero, brick, silk, crate, none ffi.Handle
	require.Equal(t, ffi.StatusOK, h.GetAsset(p.Assets, ffi.BytesOf("hero"), &hero))
	require.Equal(t, ffi.StatusOK, h.GetAsset(p.Assets, ffi.BytesOf("brick"), &brick))
	require.Equal(t, ffi.StatusOK, h.GetAsset(p.Assets, ffi.BytesOf("silk"), &silk))
	require.Equal(t, ffi.StatusOK, h.GetAsset(p.Assets, ffi.BytesOf("crate"), &crate))
	require.Equal(t, ffi.StatusOK, h.GetAsset(p.Assets, ffi.BytesOf("ghost"), &none))
	assert.Equal(t, ffi.NullHandle, none)

	var model ffi.Handle
	require.Equal(t, ffi.StatusOK, h.GetModel(p.World, player, &model))
	assert.Equal(t, hero, model)

	var tex ffi.Handle
	require.Equal(t, ffi.StatusOK, h.GetTexture(p.World, player, ffi.BytesOf("cape"), &tex))
	assert.Equal(t, ffi.NullHandle, tex)
	require.Equal(t, ffi.StatusOK, h.SetTextureOverride(p.World, p.Assets, player, ffi.BytesOf("cape"), silk))
	assert.Equal(t, ffi.StatusInvalidArgument, h.SetTextureOverride(p.World, p.Assets, player, ffi.BytesOf("hat"), silk))
	assert.Equal(t, ffi.StatusInvalidHandle, h.SetTextureOverride(p.World, p.Assets, player, ffi.BytesOf("cape"), hero))

	var ids ffi.Array[ffi.Handle]
	require.Equal(t, ffi.StatusOK, h.GetTextureIDs(p.World, player, &ids))
	got, err := ffi.TakeArray[ffi.Handle](h, "get_texture_ids", ids)
	require.NoError(t, err)
	assert.Equal(t, []ffi.Handle{brick, silk}, got)

	require.Equal(t, ffi.StatusOK, h.SetModel(p.World, p.Assets, player, crate))
	require.Equal(t, ffi.StatusOK, h.GetTextureIDs(p.World, player, &ids))
	assert.True(t, ids.Empty())
	assert.Equal(t, ffi.StatusInvalidHandle, h.SetModel(p.World, p.Assets, player, brick))
	assert.Equal(t, ffi.StatusAssetNotFound, h.SetModel(p.World, p.Assets, player, 0x999999))
}

func TestHost_AnimationChannels(t *testing.T) {
	h, p := newTestHost(t, Options{})
	var hero ffi.Handle
	require.Equal(t, ffi.StatusOK, h.GetAsset(p.Assets, ffi.BytesOf("hero"), &hero))

	var arr ffi.Array[ffi.NativeAnimationChannel]
	require.Equal(t, ffi.StatusOK, h.GetAnimationChannels(p.Assets, hero, &arr))
	require.Equal(t, 2, arr.Len())

	first := arr.Data[0]
	assert.Equal(t, []float64{0, 0.5, 1}, first.Times.CopyOut())
	interp, st := ffi.DecodeInterpolation(first.Interpolation)
	require.Equal(t, ffi.StatusOK, st)
	assert.Equal(t, ffi.InterpolationLinear, interp)

	values, st := ffi.DecodeChannelValues(arr.Data[1].Values, func(id ffi.BufferID) ([]float64, ffi.Status) {
		var view ffi.Array[float64]
		if st := h.ViewFloat64Array(id, &view); st != ffi.StatusOK {
			return nil, st
		}
		return view.CopyOut(), ffi.StatusOK
	})
	require.Equal(t, ffi.StatusOK, st)
	rot, ok := values.(ffi.Rotations)
	require.True(t, ok)
	assert.Len(t, rot.Values, 2)

	// The outer list plus one times and one values array per channel.
	assert.Equal(t, 5, h.LiveArrays())
	for _, c := range arr.Data {
		require.Equal(t, ffi.StatusOK, h.FreeArray(c.Times.ID))
		require.Equal(t, ffi.StatusOK, h.FreeArray(ffi.ChannelBuffer(c.Values)))
	}
	require.Equal(t, ffi.StatusOK, h.FreeArray(arr.ID))
	assert.Equal(t, 0, h.LiveArrays())
}

func TestHost_InputAndQuit(t *testing.T) {
	h, p := newTestHost(t, Options{})
	const keyW ffi.KeyCode = 87

	var down bool
	require.Equal(t, ffi.StatusOK, h.IsKeyPressed(p.Input, keyW, &down))
	assert.False(t, down)
	h.PressKey(keyW)
	require.Equal(t, ffi.StatusOK, h.IsKeyPressed(p.Input, keyW, &down))
	assert.True(t, down)
	h.ReleaseKey(keyW)
	require.Equal(t, ffi.StatusOK, h.IsKeyPressed(p.Input, keyW, &down))
	assert.False(t, down)

	h.MoveMouse(ffi.Vec2{X: 10, Y: 20})
	var pos ffi.Vec2
	require.Equal(t, ffi.StatusOK, h.GetMousePosition(p.Input, &pos))
	assert.Equal(t, ffi.Vec2{X: 10, Y: 20}, pos)

	require.Equal(t, ffi.StatusOK, h.Quit(p.Commands))
	cmds := h.DrainCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, CommandQuit, cmds[0].Kind)
	assert.Empty(t, h.DrainCommands())
}

func TestHost_EntitiesWithTag(t *testing.T) {
	h, p := newTestHost(t, Options{})
	player := mustEntity(t, h, p, "player")
	sword := mustEntity(t, h, p, "sword")

	assert.Equal(t, []ffi.EntityID{player, sword}, h.EntitiesWithTag("player"))
	assert.Empty(t, h.EntitiesWithTag("boss"))
	assert.Equal(t, "level1", h.CurrentScene())
	assert.Equal(t, 5, h.EntityCount())
}

func TestHost_LoadSceneMissing(t *testing.T) {
	h := New(Options{ScenesDir: "testdata/scenes", LoadDelay: time.Millisecond}, nil)
	defer h.Close()
	_, err := h.LoadScene("nowhere")
	assert.Error(t, err)
}

func TestHost_ApplyInvalidSceneKeepsWorld(t *testing.T) {
	h, p := newTestHost(t, Options{})
	before := h.EntityCount()

	err := h.ApplyScene(&data.SceneManifest{
		Name:     "broken",
		Entities: []data.EntitySpec{{Label: "a"}, {Label: "a"}},
	})
	require.Error(t, err)
	assert.Equal(t, before, h.EntityCount())
	assert.Equal(t, "level1", h.CurrentScene())
	mustEntity(t, h, p, "player")
}

func TestArena_DoubleFreeWithoutHistory(t *testing.T) {
	a := newArena()
	var ids []ffi.BufferID
	for i := 0; i < 100; i++ {
		ids = append(ids, a.allocFloats([]float64{float64(i)}))
	}
	for _, id := range ids {
		require.Equal(t, ffi.StatusOK, a.free(id))
	}
	assert.Empty(t, a.live)

	assert.Equal(t, ffi.StatusDoubleFree, a.free(ids[0]))
	assert.Equal(t, ffi.StatusDoubleFree, a.free(ids[99]))
	_, st := a.floats(ids[50])
	assert.Equal(t, ffi.StatusDoubleFree, st)
	assert.Equal(t, ffi.StatusNoSuchHandle, a.free(ids[99]+1))
	assert.Equal(t, ffi.StatusNullPointer, a.free(0))
}
