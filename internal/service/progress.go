package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

// TraceProgress summarizes annotation coverage for one trace
type TraceProgress struct {
	TraceID          string   `json:"traceId"`
	DistinctUsers    int      `json:"distinctUsers"`
	TotalAnnotations int      `json:"totalAnnotations"`
	UserIDs          []string `json:"userIds"`
}

// rankByProgress orders trace IDs by annotation coverage: most distinct
// reviewers first, then most total annotations, then original position.
// Traces without annotations rank last in their input order.
func rankByProgress(traceIDs []string, annotations []domain.Annotation) []TraceProgress {
	byTrace := make(map[string]map[uuid.UUID]int, len(traceIDs))
	for _, a := range annotations {
		users := byTrace[a.TraceID]
		if users == nil {
			users = make(map[uuid.UUID]int)
			byTrace[a.TraceID] = users
		}
		users[a.UserID]++
	}

	progress := make([]TraceProgress, 0, len(traceIDs))
	position := make(map[string]int, len(traceIDs))
	for i, id := range traceIDs {
		position[id] = i
		p := TraceProgress{TraceID: id}
		for uid, n := range byTrace[id] {
			p.DistinctUsers++
			p.TotalAnnotations += n
			p.UserIDs = append(p.UserIDs, uid.String())
		}
		sort.Strings(p.UserIDs)
		progress = append(progress, p)
	}

	sort.SliceStable(progress, func(i, j int) bool {
		a, b := progress[i], progress[j]
		if a.DistinctUsers != b.DistinctUsers {
			return a.DistinctUsers > b.DistinctUsers
		}
		if a.TotalAnnotations != b.TotalAnnotations {
			return a.TotalAnnotations > b.TotalAnnotations
		}
		return position[a.TraceID] < position[b.TraceID]
	})

	return progress
}

// mostAnnotatedIDs returns the top n trace IDs by annotation coverage
func mostAnnotatedIDs(traceIDs []string, annotations []domain.Annotation, n int) []string {
	ranked := rankByProgress(traceIDs, annotations)
	if n > len(ranked) {
		n = len(ranked)
	}
	ids := make([]string, 0, n)
	for _, p := range ranked[:n] {
		ids = append(ids, p.TraceID)
	}
	return ids
}
