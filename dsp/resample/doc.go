// Package resample converts signals between sample rates with a polyphase
// windowed-sinc filter.
//
// The rack uses it to bring impulse responses and looped capture files to
// the audio context's rate. Rates are approximated by a reduced fraction
// up/down; a Converter keeps filter history between Process calls so long
// signals can be converted block by block.
//
//	quality    taps/branch   stopband
//	Fast       16            ~55 dB
//	Balanced   32            ~75 dB   (default)
//	Best       64            ~90 dB
package resample
