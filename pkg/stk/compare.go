package stk

import (
	"errors"
	"fmt"

	"github.com/austin-mroz/stk/internal/population"
	"github.com/austin-mroz/stk/internal/stats"
)

// ComparisonEntry summarizes one population checkpoint inside a comparison.
type ComparisonEntry struct {
	Path       string
	Name       string
	Size       int
	BestScaled float64
	MeanScaled float64
}

// Comparison ranks several population checkpoints against each other.
type Comparison struct {
	Entries      []ComparisonEntry
	BestPath     string
	BestIdentity string
	BestScaled   float64
}

// Compare loads the given population checkpoints, attaches each as a named
// subpopulation under a shared root, and reports per-checkpoint fitness
// summaries plus the overall winner.
func Compare(paths []string) (Comparison, error) {
	if len(paths) < 2 {
		return Comparison{}, fmt.Errorf("compare needs at least two checkpoints, got %d", len(paths))
	}

	combined := population.New("comparison", nil)
	pops := make([]*population.Population, 0, len(paths))
	out := Comparison{Entries: make([]ComparisonEntry, 0, len(paths))}
	for _, path := range paths {
		pop, err := population.Load(path)
		if err != nil {
			return Comparison{}, fmt.Errorf("load checkpoint %s: %w", path, err)
		}
		combined = combined.AddSubpopulation(pop)
		pops = append(pops, pop)

		snapshot := stats.Summarize(pop)
		out.Entries = append(out.Entries, ComparisonEntry{
			Path:       path,
			Name:       pop.Name(),
			Size:       pop.Size(),
			BestScaled: snapshot.Scaled.Max,
			MeanScaled: snapshot.Scaled.Mean,
		})
	}

	best, ok := combined.Best()
	if !ok {
		return Comparison{}, errors.New("checkpoints hold no candidates")
	}
	out.BestIdentity = best.Identity
	out.BestScaled = best.ScaledFitness
	for i, pop := range pops {
		if contains(pop, best.Identity) {
			out.BestPath = paths[i]
			break
		}
	}
	return out, nil
}

func contains(pop *population.Population, identity string) bool {
	for c := range pop.All() {
		if c.Identity == identity {
			return true
		}
	}
	return false
}
