//go:build js && wasm

package main

import (
	"errors"
	"log/slog"
	"syscall/js"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/capture"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

// ringSeconds is how much pushed microphone audio the bridge buffers.
const ringSeconds = 0.5

var (
	audio   *audiograph.Context
	rk      *rack.Rack
	mic     *capture.Ring
	surface *rack.RecordingSurface
	onError js.Value
	funcs   []js.Func
)

func main() {
	api := js.Global().Get("Object").New()

	// init(sampleRate, [{name, url}], onError?)
	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}

		var entries []impulse.Entry
		if len(args) > 1 && !args[1].IsUndefined() {
			list := args[1]
			for i := 0; i < list.Length(); i++ {
				item := list.Index(i)
				entries = append(entries, impulse.Entry{
					Name:    item.Get("name").String(),
					Locator: item.Get("url").String(),
				})
			}
		}

		onError = js.Undefined()
		if len(args) > 2 && args[2].Type() == js.TypeFunction {
			onError = args[2]
		}

		return errValue(setup(sr, entries))
	}))

	api.Set("grantInput", export(func(args []js.Value) any {
		if mic != nil {
			mic.Grant()
		}
		return js.Null()
	}))

	api.Set("denyInput", export(func(args []js.Value) any {
		if mic == nil {
			return js.Null()
		}
		var err error
		if len(args) > 0 && args[0].Type() == js.TypeString {
			err = errors.New(args[0].String())
		}
		mic.Deny(err)
		return js.Null()
	}))

	api.Set("pushInput", export(func(args []js.Value) any {
		if mic == nil || len(args) < 1 {
			return js.Null()
		}
		arr := args[0]
		samples := make([]float64, arr.Length())
		for i := range samples {
			samples[i] = arr.Index(i).Float()
		}
		mic.Push(samples)
		return js.Null()
	}))

	api.Set("addUnit", export(func(args []js.Value) any {
		if rk == nil || len(args) < 1 {
			return js.Null()
		}
		_, err := rk.AddKind(args[0].String())
		return errValue(err)
	}))

	api.Set("removeUnit", export(func(args []js.Value) any {
		if rk == nil || len(args) < 1 {
			return js.Null()
		}
		u := rk.Unit(args[0].Int())
		if u == nil {
			return errValue(rack.ErrIndexOutOfRange)
		}
		return errValue(rk.RemoveUnit(u))
	}))

	api.Set("moveUnit", export(func(args []js.Value) any {
		if rk == nil || len(args) < 2 {
			return js.Null()
		}
		return errValue(rk.MoveUnit(args[0].Int(), args[1].Int()))
	}))

	// Knob gestures take (slot, knobName, pointerY).
	api.Set("knobDown", export(func(args []js.Value) any {
		if k := knobArg(args); k != nil && len(args) > 2 {
			k.StartDrag(args[2].Float())
		}
		return js.Null()
	}))

	api.Set("knobMove", export(func(args []js.Value) any {
		if k := knobArg(args); k != nil && len(args) > 2 {
			k.Drag(args[2].Float())
		}
		return js.Null()
	}))

	api.Set("knobUp", export(func(args []js.Value) any {
		if k := knobArg(args); k != nil {
			k.EndDrag()
		}
		return js.Null()
	}))

	api.Set("setKnob", export(func(args []js.Value) any {
		if k := knobArg(args); k != nil && len(args) > 2 {
			k.SetValue(args[2].Float())
		}
		return js.Null()
	}))

	api.Set("selectImpulse", export(func(args []js.Value) any {
		if rk == nil || len(args) < 2 {
			return js.Null()
		}
		rv, ok := rk.Unit(args[0].Int()).(*rack.Reverb)
		if !ok {
			return errValue(rack.ErrUnitNotFound)
		}
		return errValue(rv.SelectImpulse(args[1].Int()))
	}))

	api.Set("units", export(func(args []js.Value) any {
		if surface == nil {
			return js.Global().Get("Array").New(0)
		}
		return viewsValue(surface.Last)
	}))

	api.Set("render", export(func(args []js.Value) any {
		if audio == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := args[0].Int()
		buf := make([]float64, n)
		audio.Render(buf)
		arr := js.Global().Get("Float32Array").New(n)
		for i := 0; i < n; i++ {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	js.Global().Set("AlgoRack", api)
	select {}
}

func setup(sr float64, entries []impulse.Entry) error {
	catalog, err := impulse.NewCatalog(entries...)
	if err != nil {
		return err
	}

	ctx, err := audiograph.NewContext(sr)
	if err != nil {
		return err
	}

	if rk != nil {
		rk.Close()
	}

	ring := capture.NewRing(int(sr * ringSeconds))
	rec := &rack.RecordingSurface{}

	// The browser runs every goroutine on one thread, so completions may
	// run where they are posted.
	r, err := rack.New(ctx,
		rack.WithExecutor(rack.Immediate),
		rack.WithLogger(slog.Default()),
		rack.WithCaptureDevice(ring),
		rack.WithImpulseCatalog(catalog),
		rack.WithSurface(rec),
		rack.WithErrorHandler(reportError),
	)
	if err != nil {
		return err
	}

	audio, rk, mic, surface = ctx, r, ring, rec

	return nil
}

func reportError(err error) {
	if onError.Type() == js.TypeFunction {
		onError.Invoke(err.Error())
	}
}

func knobArg(args []js.Value) *rack.Knob {
	if rk == nil || len(args) < 2 {
		return nil
	}

	u := rk.Unit(args[0].Int())
	if u == nil {
		return nil
	}

	return u.Knob(args[1].String())
}

func viewsValue(views []rack.UnitView) js.Value {
	arr := js.Global().Get("Array").New(len(views))
	for i, v := range views {
		knobs := js.Global().Get("Array").New(len(v.Knobs))
		for j, k := range v.Knobs {
			kv := js.Global().Get("Object").New()
			kv.Set("name", k.Name)
			kv.Set("value", k.Value)
			kv.Set("dragging", k.Dragging)
			knobs.SetIndex(j, kv)
		}

		uv := js.Global().Get("Object").New()
		uv.Set("slot", v.Slot)
		uv.Set("kind", v.Kind)
		uv.Set("size", v.Size)
		uv.Set("status", v.Status)
		uv.Set("knobs", knobs)
		arr.SetIndex(i, uv)
	}
	return arr
}

func errValue(err error) any {
	if err != nil {
		return err.Error()
	}
	return js.Null()
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
