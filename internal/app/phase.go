package app

// Phase is the dispatcher's position in its state machine.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseAccumulating
	PhaseFlushing
	PhaseDraining
	PhaseStopped
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseAccumulating:
		return "Accumulating"
	case PhaseFlushing:
		return "Flushing"
	case PhaseDraining:
		return "Draining"
	case PhaseStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
