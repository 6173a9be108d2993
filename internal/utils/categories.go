package utils

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance bounds how far a typo may be from a known category
const maxSuggestionDistance = 3

// SelectCategories returns the requested categories in the order of known.
// Unknown names fail with a "did you mean" hint. An empty request selects all of known.
func SelectCategories(requested, known []string) ([]string, error) {
	if len(requested) == 0 {
		return known, nil
	}

	wanted := make(map[string]bool, len(requested))
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !contains(known, name) {
			if suggestion, ok := SuggestCategory(name, known); ok {
				return nil, fmt.Errorf("unknown category %q, did you mean %q?", name, suggestion)
			}
			return nil, fmt.Errorf("unknown category %q", name)
		}
		wanted[name] = true
	}

	selected := make([]string, 0, len(wanted))
	for _, category := range known {
		if wanted[category] {
			selected = append(selected, category)
		}
	}
	return selected, nil
}

// SuggestCategory returns the known category closest to input, if it is close enough
func SuggestCategory(input string, known []string) (string, bool) {
	best := ""
	bestDistance := maxSuggestionDistance + 1
	for _, category := range known {
		distance := levenshtein.ComputeDistance(strings.ToLower(input), category)
		if distance < bestDistance {
			best = category
			bestDistance = distance
		}
	}
	return best, best != ""
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
