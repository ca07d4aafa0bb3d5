package engine

import (
	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

// buildSummary aggregates the accepted correlations of one sweep.
func buildSummary(correlations []models.ErrorCorrelation) models.CorrelationSummary {
	summary := models.CorrelationSummary{
		TotalCorrelations: len(correlations),
		ByType:            make(map[models.CorrelationType]int),
	}
	if len(correlations) == 0 {
		return summary
	}

	var strengthSum, confidenceSum, impactSum float64
	for _, corr := range correlations {
		summary.ByType[corr.Type]++
		strengthSum += corr.Strength
		confidenceSum += corr.Confidence
		impactSum += corr.ImpactScore
		if corr.ImpactScore >= highImpactThreshold {
			summary.HighImpactCorrelations++
		}
	}

	total := float64(len(correlations))
	summary.AverageStrength = strengthSum / total
	summary.AverageConfidence = confidenceSum / total
	summary.AverageImpactScore = impactSum / total

	involved := mostInvolvedComponents(correlations)
	if len(involved) > 5 {
		involved = involved[:5]
	}
	summary.MostAffectedComponents = involved

	return summary
}

// buildComponentImpacts computes the per-component risk breakdown: how often
// each component with events in the window appears in correlations, as cause
// or as effect.
func buildComponentImpacts(events []models.ErrorEvent, correlations []models.ErrorCorrelation) map[string]models.ComponentImpact {
	errorCounts := make(map[string]int)
	for _, event := range events {
		errorCounts[event.Component]++
	}

	impacts := make(map[string]models.ComponentImpact, len(errorCounts))
	for component, total := range errorCounts {
		asPrimary := 0
		asSecondary := 0
		for _, corr := range correlations {
			if corr.PrimaryComponent == component {
				asPrimary++
			}
			if corr.SecondaryComponent == component {
				asSecondary++
			}
		}

		involvement := asPrimary + asSecondary
		denominator := len(correlations)
		if denominator < 1 {
			denominator = 1
		}
		riskScore := float64(involvement) / float64(denominator) * 10

		impacts[component] = models.ComponentImpact{
			TotalErrors:            total,
			CorrelationInvolvement: involvement,
			AsPrimaryCause:         asPrimary,
			AsSecondaryEffect:      asSecondary,
			RiskScore:              riskScore,
			RiskLevel:              riskLevel(riskScore),
		}
	}
	return impacts
}

func riskLevel(score float64) string {
	switch {
	case score >= 7:
		return "high"
	case score >= 4:
		return "medium"
	default:
		return "low"
	}
}
