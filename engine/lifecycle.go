package engine

import "fmt"

// Lifecycle is the engine's processing state.
type Lifecycle int32

const (
	// Uninitialized is the zero value of an engine that was not built by New.
	Uninitialized Lifecycle = iota
	// Idle accepts parameter changes and offline Process calls.
	Idle
	// Running has a source attached that Pull reads from.
	Running
	// Terminated is final. Process writes silence.
	Terminated
)

var lifecycleNames = [...]string{"uninitialized", "idle", "running", "terminated"}

func (l Lifecycle) String() string {
	if l < 0 || int(l) >= len(lifecycleNames) {
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}

	return lifecycleNames[l]
}

// acceptsParameters reports whether Set* and Apply may publish.
func (l Lifecycle) acceptsParameters() bool {
	return l == Idle || l == Running
}
