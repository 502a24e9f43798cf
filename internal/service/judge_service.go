package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
	apperrors "github.com/evalworkshop/evalworkshop/api/internal/pkg/errors"
	"github.com/evalworkshop/evalworkshop/api/internal/pkg/logger"
)

// DefaultFewShotExamples is the number of annotated traces attached to a new
// judge prompt when the caller does not pick them explicitly.
const DefaultFewShotExamples = 3

// JudgeService manages judge prompt versions and evaluates them against the
// workshop's human annotations. Evaluation runs a simulated judge whose
// predictions correlate with the human consensus; a production deployment
// would swap in a real model call behind the same scoring.
type JudgeService struct {
	judges      JudgeRepository
	traces      TraceRepository
	annotations AnnotationRepository
	workshops   WorkshopRepository

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewJudgeService creates a new judge service. A non-zero seed makes the
// simulated judge deterministic.
func NewJudgeService(
	judges JudgeRepository,
	traces TraceRepository,
	annotations AnnotationRepository,
	workshops WorkshopRepository,
	seed int64,
) *JudgeService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &JudgeService{
		judges:      judges,
		traces:      traces,
		annotations: annotations,
		workshops:   workshops,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// CreatePrompt stores a new judge prompt version for a workshop. When no
// few-shot examples are given, the most-annotated traces fill them in.
func (s *JudgeService) CreatePrompt(ctx context.Context, workshopID uuid.UUID, input *domain.JudgePromptInput) (*domain.JudgePrompt, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}

	examples := input.FewShotExamples
	if len(examples) == 0 {
		var err error
		examples, err = s.selectFewShotExamples(ctx, workshopID, DefaultFewShotExamples)
		if err != nil {
			return nil, err
		}
	}

	modelName := input.ModelName
	if modelName == "" {
		modelName = "demo"
	}

	prompt := &domain.JudgePrompt{
		ID:              uuid.New(),
		WorkshopID:      workshopID,
		PromptText:      input.PromptText,
		FewShotExamples: examples,
		ModelName:       modelName,
		CreatedBy:       input.CreatedBy,
		CreatedAt:       time.Now(),
	}
	if err := s.judges.CreatePrompt(ctx, prompt); err != nil {
		return nil, fmt.Errorf("failed to create judge prompt: %w", err)
	}

	logger.Info("judge prompt created",
		zap.String("workshop_id", workshopID.String()),
		zap.String("prompt_id", prompt.ID.String()),
		zap.Int("version", prompt.Version))
	return prompt, nil
}

// GetPrompt retrieves a judge prompt by ID
func (s *JudgeService) GetPrompt(ctx context.Context, id uuid.UUID) (*domain.JudgePrompt, error) {
	return s.judges.GetPrompt(ctx, id)
}

// ListPrompts lists a workshop's judge prompt versions, newest first
func (s *JudgeService) ListPrompts(ctx context.Context, workshopID uuid.UUID) ([]domain.JudgePrompt, error) {
	return s.judges.ListPrompts(ctx, workshopID)
}

// Evaluate runs a judge prompt over every annotated trace and scores its
// predictions against the per-trace human consensus. Results replace any
// previous evaluation of the same prompt.
func (s *JudgeService) Evaluate(ctx context.Context, workshopID, promptID uuid.UUID, traceIDs []string) (*domain.JudgeEvaluationResult, error) {
	prompt, err := s.judges.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if prompt.WorkshopID != workshopID {
		return nil, apperrors.NotFound("judge prompt")
	}

	annotations, err := s.annotations.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if len(traceIDs) > 0 {
		annotations = filterByTraceIDs(annotations, traceIDs)
	}
	if len(annotations) == 0 {
		return nil, apperrors.Precondition("no annotations available for judge evaluation")
	}

	traces, err := s.traces.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(traces))
	for i := range traces {
		known[traces[i].ID] = true
	}

	evaluations := s.simulate(workshopID, prompt, consensusByTrace(annotations, known))
	if len(evaluations) == 0 {
		return nil, apperrors.Precondition("no annotated traces remain in the pool")
	}

	if err := s.judges.SaveEvaluations(ctx, promptID, evaluations); err != nil {
		return nil, fmt.Errorf("failed to save judge evaluations: %w", err)
	}

	metrics := judgePerformance(promptID, evaluations)
	logger.Info("judge prompt evaluated",
		zap.String("workshop_id", workshopID.String()),
		zap.String("prompt_id", promptID.String()),
		zap.Float64("agreement", metrics.Agreement),
		zap.Int("evaluations", metrics.TotalEvaluations))

	return &domain.JudgeEvaluationResult{Metrics: metrics, Evaluations: evaluations}, nil
}

// traceConsensus pairs a trace with the mode of its human ratings
type traceConsensus struct {
	traceID string
	rating  int
}

// consensusByTrace reduces annotations to one consensus rating per trace,
// skipping traces no longer in the pool. Traces come back in sorted ID order
// so evaluation output is stable.
func consensusByTrace(annotations []domain.Annotation, known map[string]bool) []traceConsensus {
	ratings := make(map[string][]int)
	for i := range annotations {
		a := &annotations[i]
		if !known[a.TraceID] {
			continue
		}
		if r, ok := scalarRating(a); ok {
			ratings[a.TraceID] = append(ratings[a.TraceID], r)
		}
	}

	out := make([]traceConsensus, 0, len(ratings))
	for traceID, rs := range ratings {
		out = append(out, traceConsensus{traceID: traceID, rating: mode(rs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].traceID < out[j].traceID })
	return out
}

// scalarRating reduces an annotation to one representative rating: the legacy
// scalar when present, otherwise the first rubric question's score.
func scalarRating(a *domain.Annotation) (int, bool) {
	if a.LegacyRating != 0 {
		return a.LegacyRating, true
	}
	qids := make([]string, 0, len(a.Ratings))
	for qid := range a.Ratings {
		qids = append(qids, qid)
	}
	if len(qids) == 0 {
		return 0, false
	}
	sort.Strings(qids)
	return a.Ratings[qids[0]], true
}

// mode returns the most common rating, lowest first on ties
func mode(ratings []int) int {
	counts := make(map[int]int)
	for _, r := range ratings {
		counts[r]++
	}
	best, bestCount := 0, 0
	for r, c := range counts {
		if c > bestCount || (c == bestCount && r < best) {
			best, bestCount = r, c
		}
	}
	return best
}

func (s *JudgeService) simulate(workshopID uuid.UUID, prompt *domain.JudgePrompt, consensus []traceConsensus) []domain.JudgeEvaluation {
	evaluations := make([]domain.JudgeEvaluation, 0, len(consensus))
	for _, c := range consensus {
		evaluations = append(evaluations, domain.JudgeEvaluation{
			ID:              uuid.New(),
			WorkshopID:      workshopID,
			PromptID:        prompt.ID,
			TraceID:         c.traceID,
			PredictedRating: s.simulateRating(prompt.PromptText, c.rating),
			HumanRating:     c.rating,
			Reasoning:       "simulated judge evaluation",
		})
	}
	return evaluations
}

// simulateRating models a judge with a slight lenient bias. Prompts that ask
// for specific or detailed criteria track the human rating more tightly.
func (s *JudgeService) simulateRating(promptText string, humanRating int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	const bias = 0.3

	var variation int
	lower := strings.ToLower(promptText)
	if strings.Contains(lower, "specific") || strings.Contains(lower, "detailed") {
		variation = []int{-1, 0, 0, 0, 1}[s.rng.Intn(5)]
	} else {
		variation = s.rng.Intn(5) - 2
	}

	noise := 0
	if s.rng.Float64() < 0.1 {
		noise = s.rng.Intn(3) - 1
	}

	predicted := int(math.Round(float64(humanRating) + bias + float64(variation) + float64(noise)))
	if predicted < 1 {
		predicted = 1
	}
	if predicted > 5 {
		predicted = 5
	}
	return predicted
}

// judgePerformance scores predictions against human consensus: Cohen's kappa
// as the agreement measure (simple agreement ratio when kappa is undefined),
// exact-match accuracy overall and per human rating, and a 5x5 confusion
// matrix indexed by rating minus one.
func judgePerformance(promptID uuid.UUID, evaluations []domain.JudgeEvaluation) domain.JudgePerformance {
	total := len(evaluations)

	matches := 0
	counts1 := make(map[int]int)
	counts2 := make(map[int]int)
	matrix := make([][]int, 5)
	for i := range matrix {
		matrix[i] = make([]int, 5)
	}
	matchesByRating := make(map[int]int)
	totalByRating := make(map[int]int)

	for _, e := range evaluations {
		if e.HumanRating == e.PredictedRating {
			matches++
			matchesByRating[e.HumanRating]++
		}
		totalByRating[e.HumanRating]++
		counts1[e.HumanRating]++
		counts2[e.PredictedRating]++
		if e.HumanRating >= 1 && e.HumanRating <= 5 && e.PredictedRating >= 1 && e.PredictedRating <= 5 {
			matrix[e.HumanRating-1][e.PredictedRating-1]++
		}
	}

	observed := float64(matches) / float64(total)
	expected := 0.0
	for rating := 1; rating <= 5; rating++ {
		expected += (float64(counts1[rating]) / float64(total)) * (float64(counts2[rating]) / float64(total))
	}

	agreement := observed
	if expected != 1.0 {
		agreement = (observed - expected) / (1 - expected)
	}

	byRating := make(map[string]float64, 5)
	for rating := 1; rating <= 5; rating++ {
		key := strconv.Itoa(rating)
		if totalByRating[rating] == 0 {
			byRating[key] = 0
			continue
		}
		byRating[key] = float64(matchesByRating[rating]) / float64(totalByRating[rating])
	}

	return domain.JudgePerformance{
		PromptID:          promptID,
		Agreement:         agreement,
		Accuracy:          observed,
		AgreementByRating: byRating,
		ConfusionMatrix:   matrix,
		TotalEvaluations:  total,
	}
}

// selectFewShotExamples picks annotated traces spanning different rating
// levels, topping up with the most-annotated traces.
func (s *JudgeService) selectFewShotExamples(ctx context.Context, workshopID uuid.UUID, n int) ([]string, error) {
	annotations, err := s.annotations.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	if len(annotations) == 0 {
		return nil, nil
	}

	byRating := make(map[int][]string)
	seen := make(map[string]bool)
	var allIDs []string
	for i := range annotations {
		a := &annotations[i]
		if !seen[a.TraceID] {
			seen[a.TraceID] = true
			allIDs = append(allIDs, a.TraceID)
		}
		if r, ok := scalarRating(a); ok {
			byRating[r] = append(byRating[r], a.TraceID)
		}
	}

	ratings := make([]int, 0, len(byRating))
	for r := range byRating {
		ratings = append(ratings, r)
	}
	sort.Ints(ratings)

	var selected []string
	picked := make(map[string]bool)
	for _, r := range ratings {
		if len(selected) >= n {
			break
		}
		for _, traceID := range byRating[r] {
			if !picked[traceID] {
				picked[traceID] = true
				selected = append(selected, traceID)
				break
			}
		}
	}

	for _, traceID := range mostAnnotatedIDs(allIDs, annotations, len(allIDs)) {
		if len(selected) >= n {
			break
		}
		if !picked[traceID] {
			picked[traceID] = true
			selected = append(selected, traceID)
		}
	}

	return selected, nil
}

func filterByTraceIDs(annotations []domain.Annotation, traceIDs []string) []domain.Annotation {
	want := make(map[string]bool, len(traceIDs))
	for _, id := range traceIDs {
		want[id] = true
	}
	var out []domain.Annotation
	for i := range annotations {
		if want[annotations[i].TraceID] {
			out = append(out, annotations[i])
		}
	}
	return out
}
