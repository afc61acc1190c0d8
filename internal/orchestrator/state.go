package orchestrator

import "github.com/imtushar0001/Pathway-INTER-IIT/internal/agents"

// State is one step of a run.
type State int

const (
	StateStart State = iota
	StateGateCheck
	StateRejected
	StateRetrieveProbe
	StateRouteSelect
	StateDecompose1
	StateRetrievePerSubtask
	StateAnalyzeParallel1
	StateSynthesize1
	StateFollowUpCheck
	StateDecompose2
	StateRetrievePerSubtask2
	StateAnalyzeParallel2
	StateSynthesize2
	StateDone
)

var stateNames = [...]string{
	StateStart:               "START",
	StateGateCheck:           "GATE_CHECK",
	StateRejected:            "REJECTED",
	StateRetrieveProbe:       "RETRIEVE_PROBE",
	StateRouteSelect:         "ROUTE_SELECT",
	StateDecompose1:          "DECOMPOSE_1",
	StateRetrievePerSubtask:  "RETRIEVE_PER_SUBTASK",
	StateAnalyzeParallel1:    "ANALYZE_PARALLEL_1",
	StateSynthesize1:         "SYNTHESIZE_1",
	StateFollowUpCheck:       "FOLLOWUP_CHECK",
	StateDecompose2:          "DECOMPOSE_2",
	StateRetrievePerSubtask2: "RETRIEVE_PER_SUBTASK_2",
	StateAnalyzeParallel2:    "ANALYZE_PARALLEL_2",
	StateSynthesize2:         "SYNTHESIZE_2",
	StateDone:                "DONE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Route is the retrieval path chosen once per run.
type Route string

const (
	RouteInternal Route = "internal"
	RouteExternal Route = "external"
)

// RunState is the per-request record. It is never shared between runs.
type RunState struct {
	Question string
	Route    Route
	// Contexts holds every bundle retrieved for a subtask, in order.
	Contexts [][]string
	Round    int
	Subtasks []agents.Subtasks
	Answer   string
	Trace    []State
}

func (rs *RunState) enter(s State) {
	rs.Trace = append(rs.Trace, s)
}

// combined concatenates bundles without deduplication.
func combined(bundles ...[]string) []string {
	out := make([]string, 0)
	for _, b := range bundles {
		out = append(out, b...)
	}
	return out
}

func (rs *RunState) traceNames() []string {
	out := make([]string, len(rs.Trace))
	for i, s := range rs.Trace {
		out[i] = s.String()
	}
	return out
}
