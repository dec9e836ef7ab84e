package facade

import (
	"github.com/dropbear/bridge/internal/ffi"
	"go.uber.org/multierr"
)

type Assets struct{ e *Engine }

// Asset resolves a model or texture by name. found is false when no asset
// carries the name.
func (a Assets) Asset(name string) (h ffi.Handle, found bool, err error) {
	if st := a.e.abi.GetAsset(a.e.reg.Assets(), ffi.BytesOf(name), &h); st != ffi.StatusOK {
		return ffi.NullHandle, false, a.e.failf("get_asset", st, "asset %q", name)
	}
	return h, h != ffi.NullHandle, nil
}

// AnimationChannel is a caller-owned copy of one channel.
type AnimationChannel struct {
	TargetNode    int32
	Times         []float64
	Values        ffi.ChannelValues
	Interpolation ffi.Interpolation
}

// AnimationChannels copies every channel of model out of host memory and
// frees each allocation exactly once, including the ones left behind by a
// channel that fails to decode.
func (a Assets) AnimationChannels(model ffi.Handle) ([]AnimationChannel, error) {
	const op = "get_animation_channels"
	e := a.e
	var arr ffi.Array[ffi.NativeAnimationChannel]
	if st := e.abi.GetAnimationChannels(e.reg.Assets(), model, &arr); st != ffi.StatusOK {
		return nil, e.failf(op, st, "model %#x", uint64(model))
	}
	natives, err := ffi.TakeArray(e.abi, op, arr)
	if err != nil {
		return nil, e.policy.Resolve(e.log, err)
	}

	read := func(id ffi.BufferID) ([]float64, ffi.Status) {
		var view ffi.Array[float64]
		if st := e.abi.ViewFloat64Array(id, &view); st != ffi.StatusOK {
			return nil, st
		}
		return view.CopyOut(), ffi.StatusOK
	}

	var errs error
	out := make([]AnimationChannel, 0, len(natives))
	for _, n := range natives {
		times, err := ffi.TakeArray(e.abi, op+": times", n.Times)
		errs = multierr.Append(errs, err)

		values, st := ffi.DecodeChannelValues(n.Values, read)
		errs = multierr.Append(errs, ffi.Check(op+": values", st))
		if id := ffi.ChannelBuffer(n.Values); id != 0 {
			errs = multierr.Append(errs, ffi.Check(op+": free values", e.abi.FreeArray(id)))
		}

		interp, st := ffi.DecodeInterpolation(n.Interpolation)
		errs = multierr.Append(errs, ffi.Check(op+": interpolation", st))

		out = append(out, AnimationChannel{
			TargetNode:    n.TargetNode,
			Times:         times,
			Values:        values,
			Interpolation: interp,
		})
	}
	if errs != nil {
		return nil, e.policy.Resolve(e.log, errs)
	}
	return out, nil
}
