package recon

type MOStatus string

const (
	MODraft      MOStatus = "DRAFT"
	MOValidated  MOStatus = "VALIDATED"
	MOInProgress MOStatus = "IN_PROGRESS"
	MOProduced   MOStatus = "PRODUCED"
	MOCancelled  MOStatus = "CANCELLED"
)

var moReady = map[MOStatus]bool{
	MOValidated:  true,
	MOInProgress: true,
	MOProduced:   true,
}

// Ready reports whether an MO in this status may back a line rewrite.
func (s MOStatus) Ready() bool { return moReady[s] }

// ReadyStatuses lists the statuses accepted by the resolver, for queries.
func ReadyStatuses() []string {
	return []string{string(MOValidated), string(MOInProgress), string(MOProduced)}
}

// LineState tracks a single line through the trigger.
type LineState string

const (
	StateInspecting LineState = "INSPECTING"
	StateResolving  LineState = "RESOLVING"
	StateValidating LineState = "VALIDATING"
	StateRewriting  LineState = "REWRITING"
	StateCommitted  LineState = "COMMITTED"
	StateRejected   LineState = "REJECTED"
)

var lineNext = map[LineState]map[LineState]bool{
	StateInspecting: {StateCommitted: true, StateResolving: true},
	StateResolving:  {StateValidating: true, StateRejected: true},
	StateValidating: {StateRewriting: true, StateRejected: true},
	StateRewriting:  {StateCommitted: true, StateRejected: true},
	StateCommitted:  {},
	StateRejected:   {},
}

func CanTransition(from, to LineState) bool {
	return lineNext[from][to]
}
