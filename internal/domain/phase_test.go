package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("judge_tuning")
	require.NoError(t, err)
	assert.Equal(t, PhaseJudgeTuning, p)

	_, err = ParsePhase("JUDGE_TUNING")
	assert.Error(t, err)

	_, err = ParsePhase("warmup")
	assert.Error(t, err)

	_, err = ParsePhase("")
	assert.Error(t, err)
}

// fullCounts satisfies every data requirement
var fullCounts = WorkshopCounts{Traces: 5, Findings: 3, Annotations: 7, HasRubric: true}

// allowedPairs is the full set of (from, target) combinations the table
// permits when every data requirement is met
var allowedPairs = map[[2]Phase]bool{
	{PhaseIntake, PhaseDiscovery}:        true,
	{PhaseDiscovery, PhaseRubric}:        true,
	{PhaseRubric, PhaseAnnotation}:       true,
	{PhaseAnnotation, PhaseResults}:      true,
	{PhaseAnnotation, PhaseJudgeTuning}:  true,
	{PhaseResults, PhaseJudgeTuning}:     true,
	{PhaseJudgeTuning, PhaseUnityVolume}: true,
	{PhaseJudgeTuning, PhaseJudgeTuning}: true,
	{PhaseUnityVolume, PhaseUnityVolume}: true,
}

func TestValidateTransitionExhaustive(t *testing.T) {
	for _, from := range AllPhases {
		for _, target := range AllPhases {
			decision := ValidateTransition(from, target, fullCounts)

			// reset to intake is allowed from anywhere
			if target == PhaseIntake {
				assert.True(t, decision.Allowed, "%s -> intake must be allowed", from)
				continue
			}

			want := allowedPairs[[2]Phase{from, target}]
			assert.Equal(t, want, decision.Allowed, "%s -> %s", from, target)
			if !want {
				assert.NotEmpty(t, decision.Reason, "%s -> %s needs a reason", from, target)
			}
		}
	}
}

func TestValidateTransitionReentry(t *testing.T) {
	for _, p := range []Phase{PhaseJudgeTuning, PhaseUnityVolume} {
		decision := ValidateTransition(p, p, WorkshopCounts{})
		assert.True(t, decision.Allowed)
		assert.True(t, decision.AlreadyInPhase, "%s re-entry must be flagged", p)
	}

	// non-reentrant phases reject self-transitions
	decision := ValidateTransition(PhaseDiscovery, PhaseDiscovery, fullCounts)
	assert.False(t, decision.Allowed)
	assert.False(t, decision.AlreadyInPhase)
}

func TestValidateTransitionRequirements(t *testing.T) {
	tests := []struct {
		name   string
		from   Phase
		target Phase
		counts WorkshopCounts
		unmet  Requirement
	}{
		{"discovery needs traces", PhaseIntake, PhaseDiscovery, WorkshopCounts{}, RequireTraces},
		{"rubric needs findings", PhaseDiscovery, PhaseRubric, WorkshopCounts{Traces: 5}, RequireFindings},
		{"annotation needs rubric", PhaseRubric, PhaseAnnotation, WorkshopCounts{Traces: 5, Findings: 2}, RequireRubric},
		{"results needs annotations", PhaseAnnotation, PhaseResults, WorkshopCounts{Traces: 5, Findings: 2, HasRubric: true}, RequireAnnotations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := ValidateTransition(tt.from, tt.target, tt.counts)
			assert.False(t, decision.Allowed)
			assert.Equal(t, tt.unmet, decision.Unmet)
			assert.NotEmpty(t, decision.Reason)
		})
	}
}

func TestValidateTransitionUnknownTarget(t *testing.T) {
	decision := ValidateTransition(PhaseIntake, Phase("warmup"), fullCounts)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "warmup")
}

func TestCompletedPhaseSet(t *testing.T) {
	w := &Workshop{}

	w.MarkPhaseCompleted(PhaseDiscovery)
	w.MarkPhaseCompleted(PhaseDiscovery)
	assert.Equal(t, []Phase{PhaseDiscovery}, w.CompletedPhases)
	assert.True(t, w.HasCompletedPhase(PhaseDiscovery))

	w.MarkPhaseCompleted(PhaseRubric)
	w.UnmarkPhaseCompleted(PhaseDiscovery)
	assert.Equal(t, []Phase{PhaseRubric}, w.CompletedPhases)

	w.UnmarkPhaseCompleted(PhaseDiscovery)
	assert.Equal(t, []Phase{PhaseRubric}, w.CompletedPhases)
}
