package engine

import (
	"fmt"
	"sort"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// highImpactThreshold marks a correlation as urgent in reports and alerting.
const highImpactThreshold = 7.0

// buildRecommendations derives actionable guidance from the accepted
// correlations of a sweep.
func buildRecommendations(correlations []models.ErrorCorrelation) []string {
	if len(correlations) == 0 {
		return []string{"Continue monitoring for error patterns"}
	}

	var recommendations []string

	highImpact := 0
	byType := make(map[models.CorrelationType]bool)
	for _, corr := range correlations {
		if corr.ImpactScore >= highImpactThreshold {
			highImpact++
		}
		byType[corr.Type] = true
	}

	if highImpact > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("URGENT: Address %d high-impact error correlations immediately", highImpact))
	}
	if byType[models.CorrelationCascade] {
		recommendations = append(recommendations,
			"Implement circuit breakers to prevent cascade failures",
			"Review component isolation and fault tolerance")
	}
	if byType[models.CorrelationResource] {
		recommendations = append(recommendations,
			"Investigate resource contention and consider resource scaling")
	}
	if byType[models.CorrelationDependency] {
		recommendations = append(recommendations,
			"Review component dependencies and implement graceful degradation")
	}
	if byType[models.CorrelationPeriodic] {
		recommendations = append(recommendations,
			"Investigate periodic error patterns - may indicate scheduled processes or external factors")
	}

	involved := mostInvolvedComponents(correlations)
	limit := 3
	if len(involved) < limit {
		limit = len(involved)
	}
	for _, involvement := range involved[:limit] {
		recommendations = append(recommendations,
			fmt.Sprintf("Focus monitoring and improvement efforts on %s (involved in %d correlations)",
				involvement.Component, involvement.Count))
	}

	return recommendations
}

// mostInvolvedComponents counts primary and secondary appearances per
// component, most-involved first with component name as tie-breaker.
func mostInvolvedComponents(correlations []models.ErrorCorrelation) []models.ComponentInvolvement {
	counts := make(map[string]int)
	for _, corr := range correlations {
		counts[corr.PrimaryComponent]++
		counts[corr.SecondaryComponent]++
	}

	involved := make([]models.ComponentInvolvement, 0, len(counts))
	for component, count := range counts {
		involved = append(involved, models.ComponentInvolvement{Component: component, Count: count})
	}
	sort.Slice(involved, func(i, j int) bool {
		if involved[i].Count != involved[j].Count {
			return involved[i].Count > involved[j].Count
		}
		return involved[i].Component < involved[j].Component
	})
	return involved
}
