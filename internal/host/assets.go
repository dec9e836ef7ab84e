package host

import (
	"github.com/dropbear/bridge/internal/data"
	"github.com/dropbear/bridge/internal/ffi"
)

type assetKind int

const (
	assetModel assetKind = iota
	assetTexture
)

// assetHandleBase separates asset handles from session handles.
const assetHandleBase ffi.Handle = 0x10000

type asset struct {
	handle ffi.Handle
	name   string
	kind   assetKind
	model  *data.ModelAsset
}

func (a *asset) materials() []string {
	if a.model == nil {
		return nil
	}
	return append([]string(nil), a.model.Materials...)
}

type assetRegistry struct {
	byName   map[string]*asset
	byHandle map[ffi.Handle]*asset
}

func newAssetRegistry(t *data.AssetTable) *assetRegistry {
	r := &assetRegistry{
		byName:   make(map[string]*asset),
		byHandle: make(map[ffi.Handle]*asset),
	}
	if t == nil {
		return r
	}
	for i, name := range t.Names() {
		a := &asset{handle: assetHandleBase + ffi.Handle(i), name: name}
		if m := t.Model(name); m != nil {
			a.kind, a.model = assetModel, m
		} else {
			a.kind = assetTexture
		}
		r.byName[name] = a
		r.byHandle[a.handle] = a
	}
	return r
}

func (r *assetRegistry) get(handle ffi.Handle, kind assetKind) (*asset, ffi.Status) {
	if handle == ffi.NullHandle {
		return nil, ffi.StatusNullPointer
	}
	a, ok := r.byHandle[handle]
	if !ok {
		return nil, ffi.StatusAssetNotFound
	}
	if a.kind != kind {
		return nil, ffi.StatusInvalidHandle
	}
	return a, ffi.StatusOK
}

// GetAsset resolves an asset name. Unknown names yield NullHandle.
func (h *Host) GetAsset(assets ffi.Handle, name ffi.Bytes, out *ffi.Handle) ffi.Status {
	const op = "get_asset"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, assets, resAssets); st != ffi.StatusOK {
		return st
	}
	s, st := h.copyIn(op, name)
	if st != ffi.StatusOK {
		return st
	}
	if a, ok := h.assets.byName[s]; ok {
		*out = a.handle
	} else {
		*out = ffi.NullHandle
	}
	return ffi.StatusOK
}

// GetAnimationChannels allocates one array for the channel list, one for each
// channel's keyframe times and one for each channel's values.
func (h *Host) GetAnimationChannels(assets ffi.Handle, model ffi.Handle, out *ffi.Array[ffi.NativeAnimationChannel]) ffi.Status {
	const op = "get_animation_channels"
	if out == nil {
		return ffi.StatusNullPointer
	}
	if st := h.checkHandle(op, assets, resAssets); st != ffi.StatusOK {
		return st
	}
	a, st := h.assets.get(model, assetModel)
	if st != ffi.StatusOK {
		return h.fail(op, st, "model handle %#x", uint64(model))
	}
	channels := make([]ffi.NativeAnimationChannel, 0, len(a.model.Channels))
	for _, c := range a.model.Channels {
		values, st := ffi.EncodeChannelValues(channelValuesFrom(c), h.arena.allocFloats)
		if st != ffi.StatusOK {
			return h.fail(op, st, "model %q node %d", a.name, c.TargetNode)
		}
		channels = append(channels, ffi.NativeAnimationChannel{
			TargetNode:    c.TargetNode,
			Times:         allocArray(h.arena, append([]float64(nil), c.Times...)),
			Values:        values,
			Interpolation: ffi.EncodeInterpolation(ffi.Interpolation(data.InterpolationOrdinal(c.Interpolation))),
		})
	}
	*out = allocArray(h.arena, channels)
	return ffi.StatusOK
}

func channelValuesFrom(c data.AnimationChannel) ffi.ChannelValues {
	switch {
	case len(c.Rotations) > 0:
		qs := make([]ffi.Quat, len(c.Rotations))
		for i, r := range c.Rotations {
			qs[i] = ffi.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]}
		}
		return ffi.Rotations{Values: qs}
	case len(c.Scales) > 0:
		return ffi.Scales{Values: vec3s(c.Scales)}
	default:
		return ffi.Translations{Values: vec3s(c.Translations)}
	}
}

func vec3s(in [][3]float64) []ffi.Vec3 {
	out := make([]ffi.Vec3, len(in))
	for i, v := range in {
		out[i] = vec3From(v)
	}
	return out
}
