package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/sentinelstack/sentinel-correlate/internal/models"
)

func TestRegistryStrongerWins(t *testing.T) {
	registry := NewRegistry(10, 0)

	weak := candidate("weak", models.CorrelationTemporal, "database", "api_server", 0.7, 0.6, 5)
	strong := candidate("strong", models.CorrelationTemporal, "database", "api_server", 0.9, 0.6, 5)

	if !registry.Insert(weak) {
		t.Fatalf("first insert should succeed")
	}
	if !registry.Insert(strong) {
		t.Fatalf("stronger correlation should replace the slot")
	}
	if registry.Insert(weak) {
		t.Fatalf("weaker correlation must not replace a stronger one")
	}

	if registry.Len() != 1 {
		t.Fatalf("one key should hold one entry, got %d", registry.Len())
	}
	active := registry.Active("", 0)
	if active[0].ID != "strong" {
		t.Errorf("expected stronger entry to survive, got %s", active[0].ID)
	}

	// Counters are cumulative across every detection, replacements included.
	if registry.TotalDetected() != 3 {
		t.Errorf("expected 3 total detections, got %d", registry.TotalDetected())
	}
	if registry.CountsByType()[models.CorrelationTemporal] != 3 {
		t.Errorf("expected 3 temporal detections, got %d", registry.CountsByType()[models.CorrelationTemporal])
	}
}

func TestRegistryBoundedEviction(t *testing.T) {
	registry := NewRegistry(3, 0)
	base := time.Now()

	for i := 0; i < 4; i++ {
		corr := candidate(fmt.Sprintf("corr-%d", i), models.CorrelationTemporal, fmt.Sprintf("comp-%d", i), "other", 0.8, 0.7, 5)
		corr.LastObserved = base.Add(time.Duration(i) * time.Minute)
		registry.Insert(corr)
	}

	if registry.Len() != 3 {
		t.Fatalf("registry should stay bounded at 3, got %d", registry.Len())
	}
	for _, corr := range registry.Snapshot() {
		if corr.ID == "corr-0" {
			t.Fatalf("oldest entry should have been evicted")
		}
	}
}

func TestRegistryTTLPruning(t *testing.T) {
	registry := NewRegistry(10, time.Hour)

	stale := candidate("stale", models.CorrelationTemporal, "database", "api_server", 0.8, 0.7, 5)
	stale.LastObserved = time.Now().Add(-2 * time.Hour)
	fresh := candidate("fresh", models.CorrelationDependency, "network", "api_server", 0.8, 0.7, 5)
	fresh.LastObserved = time.Now()

	registry.Insert(stale)
	registry.Insert(fresh)

	active := registry.Active("", 0)
	if len(active) != 1 || active[0].ID != "fresh" {
		t.Fatalf("expired entries should be pruned on access, got %d entries", len(active))
	}
}

func TestRegistryActiveFilters(t *testing.T) {
	registry := NewRegistry(10, 0)

	registry.Insert(candidate("temporal-low", models.CorrelationTemporal, "a", "b", 0.8, 0.7, 2))
	registry.Insert(candidate("temporal-high", models.CorrelationTemporal, "c", "d", 0.8, 0.7, 8))
	registry.Insert(candidate("cascade", models.CorrelationCascade, "e", "f", 0.8, 0.7, 6))

	temporal := registry.Active("temporal", 0)
	if len(temporal) != 2 {
		t.Fatalf("expected 2 temporal entries, got %d", len(temporal))
	}
	if temporal[0].ID != "temporal-high" {
		t.Errorf("results should be impact-descending, got %s first", temporal[0].ID)
	}

	highImpact := registry.Active("", 5)
	if len(highImpact) != 2 {
		t.Fatalf("expected 2 entries above impact 5, got %d", len(highImpact))
	}
}
