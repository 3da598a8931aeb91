package rack_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack"
)

func Example() {
	audio, err := audiograph.NewContext(48000)
	if err != nil {
		panic(err)
	}

	// Without a capture device the rack is built but never becomes ready.
	r, err := rack.New(audio, rack.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		panic(err)
	}
	defer r.Close()

	u, err := r.AddKind(rack.KindDistortion)
	if err != nil {
		panic(err)
	}

	u.Knob("distortion").SetValue(0.9)

	for i, unit := range r.Units() {
		fmt.Println(i, unit.Kind())
	}

	fmt.Printf("ready=%v amount=%.2f\n", r.Ready(), u.(*rack.Distortion).Amount())
	// Output:
	// 0 input
	// 1 distortion
	// 2 output
	// ready=false amount=0.90
}

func ExampleKnob_Drag() {
	k := rack.NewKnob("time", 0.5, nil)

	k.StartDrag(200)
	k.Drag(190) // 10 px up
	fmt.Printf("%.2f\n", k.Value())

	k.Drag(400) // far down clamps
	fmt.Printf("%.2f\n", k.Value())
	k.EndDrag()
	// Output:
	// 0.75
	// 0.00
}
