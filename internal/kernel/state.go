package kernel

// State represents the lifecycle state of a mod.
type State int

// Mod states.
const (
	// StateUnloaded - Mod was deleted or never finished loading.
	StateUnloaded State = iota

	// StateLoaded - Mod's main ran successfully and it is in the registry.
	StateLoaded
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}
