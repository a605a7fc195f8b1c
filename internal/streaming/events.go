package streaming

// EventKind identifies what a classified log line means for mission state.
type EventKind int

const (
	EventContractAccepted EventKind = iota
	EventObjectiveUpdate
	EventContractEnded
	EventRewardAwarded
	EventLocationUpdate
	EventIdentityUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventContractAccepted:
		return "contract_accepted"
	case EventObjectiveUpdate:
		return "objective_update"
	case EventContractEnded:
		return "contract_ended"
	case EventRewardAwarded:
		return "reward_awarded"
	case EventLocationUpdate:
		return "location_update"
	case EventIdentityUpdate:
		return "identity_update"
	}
	return "unknown"
}

// Dialect names which log surface produced the event. The same fact can
// arrive through several surfaces with different reliability.
type Dialect string

const (
	DialectNative Dialect = "native"
	DialectUI     Dialect = "ui"
	DialectMarker Dialect = "marker"
	DialectPush   Dialect = "push"
)

// Mission end outcomes after normalization. Raw log values COMPLETE,
// COMPLETED and MISSION_STATE_COMPLETED all collapse to OutcomeSuccess.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeAbandon = "ABANDON"
	OutcomeFail    = "FAIL"
	OutcomeUnknown = "UNKNOWN"
)

// Event is one normalized fact extracted from a log line. Only the fields
// relevant to the Kind are set.
type Event struct {
	Kind    EventKind
	Dialect Dialect

	MissionID string
	Title     string

	// Objective fields.
	Action           string
	Current          int
	Total            int
	Material         string
	Location         string
	ExplicitComplete bool

	// End and reward fields.
	Outcome string
	Amount  int

	// Identity fields.
	Ship   string
	Player string
}
