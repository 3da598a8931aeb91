// Package interp provides the interpolation primitives used by the delay
// and waveshaper nodes of the audio graph.
//
//   - [Linear2]:  2-point linear interpolation (table lookup)
//   - [Hermite4]: 4-point cubic Hermite (fractional delay reads)
package interp
