//go:build headless

package main

import (
	"errors"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

var errNoPlayback = errors.New("built without audio playback; use -out")

func newPlayer(*audiograph.Context) (interface{ Close() error }, error) {
	return nil, errNoPlayback
}
