package engine

import (
	"sort"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// Ranker filters, deduplicates and orders candidate correlations before they
// reach the registry. Ranking is idempotent: running it twice over the same
// candidate set yields the same accepted set in the same order.
type Ranker struct {
	correlationThreshold float64
	confidenceThreshold  float64
}

// NewRanker constructs a Ranker with the given acceptance thresholds.
func NewRanker(correlationThreshold, confidenceThreshold float64) *Ranker {
	return &Ranker{
		correlationThreshold: correlationThreshold,
		confidenceThreshold:  confidenceThreshold,
	}
}

// Rank re-validates the thresholds, keeps the strongest candidate per
// (type, primary, secondary) key, and sorts descending by composite score.
func (r *Ranker) Rank(candidates []models.ErrorCorrelation) []models.ErrorCorrelation {
	survivors := make(map[string]models.ErrorCorrelation)
	order := make([]string, 0, len(candidates))

	for _, candidate := range candidates {
		if candidate.Strength < r.correlationThreshold || candidate.Confidence < r.confidenceThreshold {
			continue
		}
		key := candidate.Key()
		existing, ok := survivors[key]
		if !ok {
			survivors[key] = candidate
			order = append(order, key)
			continue
		}
		if candidate.Strength > existing.Strength {
			survivors[key] = candidate
		}
	}

	ranked := make([]models.ErrorCorrelation, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, survivors[key])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore() > ranked[j].CompositeScore()
	})
	return ranked
}
