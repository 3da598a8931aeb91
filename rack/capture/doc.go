// Package capture provides input devices for a rack: a synthetic plucked
// string, a looped WAV file and a push-fed ring buffer for hosts that
// deliver microphone frames themselves.
//
// Every device implements rack.CaptureDevice. Open may block until the
// device is available and fails when access is refused.
package capture
