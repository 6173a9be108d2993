package controllers

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/sirupsen/logrus"
)

// Count is one bucket of a distribution
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats is the distribution of stored exercises
type Stats struct {
	Total       int     `json:"total"`
	ByCategory  []Count `json:"by_category"`
	ByMuscle    []Count `json:"by_muscle"`
	ByEquipment []Count `json:"by_equipment"`
}

// StatsController aggregates the stored catalog
type StatsController struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatsController creates a new stats controller
func NewStatsController(db *models.Database, logger *logrus.Logger) *StatsController {
	return &StatsController{
		db:     db,
		logger: logger,
	}
}

// Collect computes the distributions by category, target muscle and equipment.
// A record counts once for every muscle and every equipment item it lists.
func (c *StatsController) Collect(ctx context.Context) (*Stats, error) {
	categoryRows, err := c.db.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	byCategory := map[string]int{}
	for _, row := range categoryRows {
		byCategory[row.Category.String()] += int(row.Count)
	}

	exercises, err := c.db.GetAllExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercises: %w", err)
	}

	byMuscle := map[string]int{}
	byEquipment := map[string]int{}
	for _, exercise := range exercises {
		for _, muscle := range exercise.TargetMuscles {
			byMuscle[muscle]++
		}
		for _, equipment := range exercise.Equipment {
			byEquipment[equipment]++
		}
	}

	return &Stats{
		Total:       len(exercises),
		ByCategory:  sortedCounts(byCategory),
		ByMuscle:    sortedCounts(byMuscle),
		ByEquipment: sortedCounts(byEquipment),
	}, nil
}

// Report collects the statistics and writes them to w
func (c *StatsController) Report(ctx context.Context, w io.Writer) (*Stats, error) {
	stats, err := c.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := WriteStats(w, stats); err != nil {
		return nil, fmt.Errorf("failed to write statistics: %w", err)
	}
	return stats, nil
}

// WriteStats renders stats as plain text
func WriteStats(w io.Writer, stats *Stats) error {
	sections := []struct {
		title  string
		counts []Count
	}{
		{"Exercise distribution by category:", stats.ByCategory},
		{"Exercise distribution by target muscle:", stats.ByMuscle},
		{"Exercise distribution by equipment:", stats.ByEquipment},
	}

	if _, err := fmt.Fprintf(w, "Total exercises: %d\n", stats.Total); err != nil {
		return err
	}
	for _, section := range sections {
		if _, err := fmt.Fprintf(w, "\n%s\n", section.title); err != nil {
			return err
		}
		for _, count := range section.counts {
			if _, err := fmt.Fprintf(w, "- %s: %d exercises\n", count.Name, count.Count); err != nil {
				return err
			}
		}
	}
	return nil
}

// sortedCounts orders buckets by count descending, then name
func sortedCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for name, count := range counts {
		out = append(out, Count{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
