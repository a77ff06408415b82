package rag

import "github.com/documind/documind/internal/models"

// Gate returns the matches scoring at or above the threshold, preserving
// the incoming order (already descending by score). An empty result is
// the single refusal trigger: no content cleared the bar, regardless of
// how many raw matches came back.
func Gate(matches []models.SearchMatch, threshold float64) []models.SearchMatch {
	var kept []models.SearchMatch
	for _, match := range matches {
		if match.Score >= threshold {
			kept = append(kept, match)
		}
	}
	return kept
}
