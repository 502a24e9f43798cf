package domain

import "fmt"

// Phase represents a stage in the workshop lifecycle
type Phase string

const (
	PhaseIntake      Phase = "intake"
	PhaseDiscovery   Phase = "discovery"
	PhaseRubric      Phase = "rubric"
	PhaseAnnotation  Phase = "annotation"
	PhaseResults     Phase = "results"
	PhaseJudgeTuning Phase = "judge_tuning"
	PhaseUnityVolume Phase = "unity_volume"
)

// AllPhases lists every phase in canonical forward order
var AllPhases = []Phase{
	PhaseIntake,
	PhaseDiscovery,
	PhaseRubric,
	PhaseAnnotation,
	PhaseResults,
	PhaseJudgeTuning,
	PhaseUnityVolume,
}

// IsValid checks if the phase is a known lifecycle stage
func (p Phase) IsValid() bool {
	switch p {
	case PhaseIntake, PhaseDiscovery, PhaseRubric, PhaseAnnotation,
		PhaseResults, PhaseJudgeTuning, PhaseUnityVolume:
		return true
	}
	return false
}

func (p Phase) String() string { return string(p) }

// ParsePhase converts a string label into a Phase, rejecting unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

// Requirement names the data precondition a transition depends on
type Requirement int

const (
	// RequireNone means the transition is gated by phase membership only
	RequireNone Requirement = iota
	// RequireTraces means at least one trace must exist in the workshop
	RequireTraces
	// RequireFindings means at least one discovery finding must exist
	RequireFindings
	// RequireRubric means a rubric must exist for the workshop
	RequireRubric
	// RequireAnnotations means at least one annotation must exist
	RequireAnnotations
)

func (r Requirement) String() string {
	switch r {
	case RequireTraces:
		return "at least one trace"
	case RequireFindings:
		return "at least one discovery finding"
	case RequireRubric:
		return "a rubric"
	case RequireAnnotations:
		return "at least one annotation"
	default:
		return "none"
	}
}

// TransitionRule describes how a workshop may enter a target phase.
// A nil From set means any current phase is acceptable (administrative reset).
type TransitionRule struct {
	From      []Phase
	Requires  Requirement
	Reentrant bool // entering the phase while already in it is an idempotent no-op
}

// Transitions is the phase transition table, keyed by target phase.
// Keeping it as data (instead of scattered conditionals) lets tests walk
// every (from, to) pair exhaustively.
var Transitions = map[Phase]TransitionRule{
	PhaseIntake:      {From: nil, Requires: RequireNone},
	PhaseDiscovery:   {From: []Phase{PhaseIntake}, Requires: RequireTraces},
	PhaseRubric:      {From: []Phase{PhaseDiscovery}, Requires: RequireFindings},
	PhaseAnnotation:  {From: []Phase{PhaseRubric}, Requires: RequireRubric},
	PhaseResults:     {From: []Phase{PhaseAnnotation}, Requires: RequireAnnotations},
	PhaseJudgeTuning: {From: []Phase{PhaseAnnotation, PhaseResults}, Requires: RequireNone, Reentrant: true},
	PhaseUnityVolume: {From: []Phase{PhaseJudgeTuning}, Requires: RequireNone, Reentrant: true},
}

// WorkshopCounts is the data snapshot a transition decision depends on
type WorkshopCounts struct {
	Traces      int
	Findings    int
	Annotations int
	HasRubric   bool
}

// Met reports whether the snapshot satisfies the requirement
func (c WorkshopCounts) Met(r Requirement) bool {
	switch r {
	case RequireTraces:
		return c.Traces > 0
	case RequireFindings:
		return c.Findings > 0
	case RequireRubric:
		return c.HasRubric
	case RequireAnnotations:
		return c.Annotations > 0
	default:
		return true
	}
}

// TransitionDecision is the outcome of validating a phase transition.
// It carries no side effects; callers apply or reject based on it.
type TransitionDecision struct {
	Allowed        bool
	AlreadyInPhase bool
	Unmet          Requirement
	Reason         string
}

// ValidateTransition decides whether a workshop currently in `from` may move
// to `target` given the data snapshot. It is pure: no mutation, no I/O.
func ValidateTransition(from, target Phase, counts WorkshopCounts) TransitionDecision {
	rule, ok := Transitions[target]
	if !ok {
		return TransitionDecision{
			Reason: fmt.Sprintf("unknown target phase %q", target),
		}
	}

	if rule.Reentrant && from == target {
		return TransitionDecision{Allowed: true, AlreadyInPhase: true}
	}

	if rule.From != nil {
		valid := false
		for _, f := range rule.From {
			if f == from {
				valid = true
				break
			}
		}
		if !valid {
			return TransitionDecision{
				Reason: fmt.Sprintf("cannot advance to %s from %s phase", target, from),
			}
		}
	}

	if !counts.Met(rule.Requires) {
		return TransitionDecision{
			Unmet:  rule.Requires,
			Reason: fmt.Sprintf("cannot advance to %s: requires %s", target, rule.Requires),
		}
	}

	return TransitionDecision{Allowed: true}
}
