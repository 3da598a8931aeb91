//go:build !headless

package main

import (
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

const playbackBuffer = 40 * time.Millisecond

// newPlayer starts playing audio through the default output device.
func newPlayer(audio *audiograph.Context) (interface{ Close() error }, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(audio.SampleRate()),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   playbackBuffer,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	p := ctx.NewPlayer(&pcmReader{audio: audio})
	p.Play()

	return p, nil
}
