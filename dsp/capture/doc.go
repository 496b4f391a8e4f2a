// Package capture records the output bus of the tube engine.
//
// A [Sink] accepts planar blocks from the audio path and moves them
// through a lock-free single-producer single-consumer queue to a drain
// goroutine, which grows the [Recording]. Only one session runs at a
// time: a second Start reports [ErrAlreadyRecording] and a Stop without a
// session reports [ErrNotRecording]. Overflow never blocks the audio path;
// lost frames are counted in [Recording.Dropped].
//
// Finished recordings can be exported as WAV through [Recording.WriteWAV]
// or streamed into any beep pipeline.
package capture
