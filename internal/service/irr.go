package service

import (
	"fmt"
	"sort"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

// Inter-rater reliability math. Cohen's kappa handles exactly two raters
// with complete data; Krippendorff's alpha (ordinal, squared distance)
// handles any rater count and missing data.

// AgreementThreshold is the minimum score treated as acceptable agreement
// for workshop progression.
const AgreementThreshold = 0.3

// ratingFor extracts the score an annotation assigns to a question, falling
// back to the legacy scalar when no map entry exists
func ratingFor(a *domain.Annotation, questionID string) (int, bool) {
	return a.Rating(questionID)
}

// questionIDsOf collects every distinct rubric question key present in the
// annotations, sorted for deterministic iteration
func questionIDsOf(annotations []domain.Annotation) []string {
	set := make(map[string]bool)
	for i := range annotations {
		for qid := range annotations[i].Ratings {
			set[qid] = true
		}
	}
	ids := make([]string, 0, len(set))
	for qid := range set {
		ids = append(ids, qid)
	}
	sort.Strings(ids)
	return ids
}

// distinctRaters counts the reviewers represented in the annotations
func distinctRaters(annotations []domain.Annotation) int {
	set := make(map[string]bool)
	for i := range annotations {
		set[annotations[i].UserID.String()] = true
	}
	return len(set)
}

// cohensKappa computes Cohen's kappa for a question across exactly two
// raters: kappa = (po - pe) / (1 - pe), over traces both raters scored.
func cohensKappa(annotations []domain.Annotation, questionID string) (float64, error) {
	if len(annotations) == 0 {
		return 0, fmt.Errorf("no annotations provided")
	}

	// trace -> rater -> rating
	matrix := make(map[string]map[string]int)
	raters := make(map[string]bool)
	for i := range annotations {
		a := &annotations[i]
		rating, ok := ratingFor(a, questionID)
		if !ok {
			continue
		}
		if matrix[a.TraceID] == nil {
			matrix[a.TraceID] = make(map[string]int)
		}
		rid := a.UserID.String()
		matrix[a.TraceID][rid] = rating
		raters[rid] = true
	}

	if len(raters) != 2 {
		return 0, fmt.Errorf("cohen's kappa requires exactly 2 raters, got %d", len(raters))
	}

	raterIDs := make([]string, 0, 2)
	for rid := range raters {
		raterIDs = append(raterIDs, rid)
	}
	sort.Strings(raterIDs)

	type pair struct{ a, b int }
	var pairs []pair
	for _, ratings := range matrix {
		r1, ok1 := ratings[raterIDs[0]]
		r2, ok2 := ratings[raterIDs[1]]
		if ok1 && ok2 {
			pairs = append(pairs, pair{r1, r2})
		}
	}
	if len(pairs) < 2 {
		return 0, fmt.Errorf("need at least 2 paired ratings, got %d", len(pairs))
	}

	agreed := 0
	counts1 := make(map[int]int)
	counts2 := make(map[int]int)
	for _, p := range pairs {
		if p.a == p.b {
			agreed++
		}
		counts1[p.a]++
		counts2[p.b]++
	}

	total := float64(len(pairs))
	observed := float64(agreed) / total

	expected := 0.0
	for rating := 1; rating <= 5; rating++ {
		expected += (float64(counts1[rating]) / total) * (float64(counts2[rating]) / total)
	}

	if expected == 1.0 {
		if observed == 1.0 {
			return 1.0, nil
		}
		return 0.0, nil
	}

	return clamp((observed-expected)/(1-expected), -1, 1), nil
}

// krippendorffAlpha computes ordinal Krippendorff's alpha for a question:
// alpha = 1 - Do/De over a coincidence matrix with squared-distance
// disagreement.
func krippendorffAlpha(annotations []domain.Annotation, questionID string) float64 {
	if len(annotations) < 2 {
		return 0.0
	}

	// trace -> observed ratings
	traces := make(map[string][]int)
	for i := range annotations {
		a := &annotations[i]
		if rating, ok := ratingFor(a, questionID); ok {
			traces[a.TraceID] = append(traces[a.TraceID], rating)
		}
	}

	type cell struct{ a, b int }
	coincidence := make(map[cell]float64)
	for _, ratings := range traces {
		n := len(ratings)
		if n < 2 {
			continue
		}
		weight := 1.0 / float64(n-1)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i != j {
					coincidence[cell{ratings[i], ratings[j]}] += weight
				}
			}
		}
	}

	trivial := true
	for c, count := range coincidence {
		if c.a != c.b && count > 0 {
			trivial = false
			break
		}
	}
	if trivial {
		return 1.0
	}

	totalPairs := 0.0
	for _, count := range coincidence {
		totalPairs += count
	}
	if totalPairs == 0 {
		return 0.0
	}

	observed := 0.0
	marginals := make(map[int]float64)
	for c, count := range coincidence {
		d := float64(c.a-c.b) * float64(c.a-c.b)
		observed += count * d
		marginals[c.a] += count
		marginals[c.b] += count
	}
	observed /= totalPairs

	totalMarginal := 0.0
	for _, m := range marginals {
		totalMarginal += m
	}
	if totalMarginal == 0 {
		return 0.0
	}

	expected := 0.0
	for r1, m1 := range marginals {
		for r2, m2 := range marginals {
			if r1 != r2 {
				d := float64(r1-r2) * float64(r1-r2)
				expected += (m1 / totalMarginal) * (m2 / totalMarginal) * d
			}
		}
	}

	if expected == 0 {
		if observed == 0 {
			return 1.0
		}
		return 0.0
	}

	return clamp(1-observed/expected, -1, 1)
}

// krippendorffAlphaPerQuestion computes alpha for each rubric question that
// appears in the annotations
func krippendorffAlphaPerQuestion(annotations []domain.Annotation) map[string]float64 {
	questionIDs := questionIDsOf(annotations)
	if len(questionIDs) == 0 {
		return nil
	}
	scores := make(map[string]float64, len(questionIDs))
	for _, qid := range questionIDs {
		scores[qid] = krippendorffAlpha(annotations, qid)
	}
	return scores
}

// interpretKappa maps a kappa score to the Landis & Koch scale
func interpretKappa(kappa float64) string {
	switch {
	case kappa < 0:
		return "Poor agreement (systematic disagreement)"
	case kappa <= 0.20:
		return "Slight agreement"
	case kappa <= 0.40:
		return "Fair agreement"
	case kappa <= 0.60:
		return "Moderate agreement"
	case kappa <= 0.80:
		return "Substantial agreement"
	default:
		return "Almost perfect agreement"
	}
}

// interpretAlpha maps an alpha score to Krippendorff's reliability bands
func interpretAlpha(alpha float64) string {
	switch {
	case alpha >= 0.800:
		return "Excellent agreement (reliable for all purposes)"
	case alpha >= 0.667:
		return "Good agreement (tentative conclusions acceptable)"
	case alpha >= 0.300:
		return "Acceptable agreement (for exploratory research)"
	case alpha >= 0.0:
		return "Poor agreement (unreliable)"
	default:
		return "Systematic disagreement"
	}
}

// improvementSuggestions returns facilitator guidance when agreement falls
// below the acceptance threshold
func improvementSuggestions(score float64) []string {
	if score >= AgreementThreshold {
		return nil
	}

	suggestions := []string{
		"Clarify the rubric question so all annotators interpret it identically",
		"Conduct group discussion on traces where annotators strongly disagreed",
		"Consider simplifying the rubric to reduce subjective interpretation",
		"Provide additional calibration training with gold standard examples",
	}

	if score < 0 {
		suggestions = append(suggestions,
			"Systematic disagreement detected: consider completely revising the rubric",
			"Check if annotators understood the rating scale direction (1=worst vs 1=best)",
			"Verify that all annotators are evaluating the same aspect of responses",
		)
	} else if score < 0.15 {
		suggestions = append(suggestions,
			"Agreement is very low: consider starting over with a clearer rubric")
	}

	return suggestions
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
