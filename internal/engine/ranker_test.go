package engine

import (
	"testing"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

func candidate(id string, corrType models.CorrelationType, primary, secondary string, strength, confidence, impact float64) models.ErrorCorrelation {
	return models.ErrorCorrelation{
		ID:                 id,
		Type:               corrType,
		PrimaryComponent:   primary,
		SecondaryComponent: secondary,
		Strength:           strength,
		Confidence:         confidence,
		ImpactScore:        impact,
		LastObserved:       time.Now(),
	}
}

func TestRankerFiltersThresholds(t *testing.T) {
	ranker := NewRanker(0.7, 0.6)

	candidates := []models.ErrorCorrelation{
		candidate("keep", models.CorrelationTemporal, "database", "api_server", 0.8, 0.7, 5),
		candidate("weak-strength", models.CorrelationTemporal, "database", "web_scraper", 0.5, 0.9, 5),
		candidate("weak-confidence", models.CorrelationDependency, "network", "api_server", 0.9, 0.3, 5),
	}

	ranked := ranker.Rank(candidates)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(ranked))
	}
	if ranked[0].ID != "keep" {
		t.Errorf("wrong survivor %s", ranked[0].ID)
	}
}

func TestRankerDeduplicatesByKey(t *testing.T) {
	ranker := NewRanker(0.5, 0.5)

	candidates := []models.ErrorCorrelation{
		candidate("first", models.CorrelationTemporal, "database", "api_server", 0.7, 0.7, 5),
		candidate("stronger", models.CorrelationTemporal, "database", "api_server", 0.9, 0.7, 5),
		candidate("weaker", models.CorrelationTemporal, "database", "api_server", 0.6, 0.7, 5),
	}

	ranked := ranker.Rank(candidates)
	if len(ranked) != 1 {
		t.Fatalf("expected single entry per key, got %d", len(ranked))
	}
	if ranked[0].ID != "stronger" {
		t.Errorf("dedup should keep the strongest candidate, got %s", ranked[0].ID)
	}
}

func TestRankerOrdersByCompositeScore(t *testing.T) {
	ranker := NewRanker(0.5, 0.5)

	candidates := []models.ErrorCorrelation{
		candidate("low", models.CorrelationTemporal, "a", "b", 0.6, 0.6, 2),
		candidate("high", models.CorrelationDependency, "c", "d", 0.9, 0.9, 9),
		candidate("mid", models.CorrelationResource, "e", "f", 0.8, 0.7, 5),
	}

	ranked := ranker.Rank(candidates)
	if len(ranked) != 3 {
		t.Fatalf("expected all 3 survivors, got %d", len(ranked))
	}
	if ranked[0].ID != "high" || ranked[1].ID != "mid" || ranked[2].ID != "low" {
		t.Errorf("unexpected order: %s, %s, %s", ranked[0].ID, ranked[1].ID, ranked[2].ID)
	}
}

func TestRankerIdempotent(t *testing.T) {
	ranker := NewRanker(0.5, 0.5)

	candidates := []models.ErrorCorrelation{
		candidate("a", models.CorrelationTemporal, "a", "b", 0.6, 0.6, 2),
		candidate("b", models.CorrelationDependency, "c", "d", 0.9, 0.9, 9),
		candidate("a-dup", models.CorrelationTemporal, "a", "b", 0.7, 0.6, 2),
	}

	once := ranker.Rank(candidates)
	twice := ranker.Rank(once)
	if len(once) != len(twice) {
		t.Fatalf("ranking changed length on second pass: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("position %d changed: %s vs %s", i, once[i].ID, twice[i].ID)
		}
	}
}
