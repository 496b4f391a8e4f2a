// Package meter provides the input and output level meters of the tube
// engine.
//
// The audio path calls [Meter.Write] with every block. A display loop,
// usually [Monitor], calls [Meter.Refresh] on its own cadence and readers
// call [Meter.Level] at any time. The reported value is
//
//	min(sqrt(mean(x^2)) * 100, 100)
//
// over the most recent complete window of [WindowSize] frames. Neither
// side ever blocks the other.
package meter
