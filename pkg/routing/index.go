package routing

import "github.com/canvass/canvass/pkg/models"

// BuildQuestionIndex maps question ids to their position in the ordered
// question list. Built once per resolution call so position lookups and
// goto target resolution are O(1) instead of repeated linear scans.
func BuildQuestionIndex(questions []models.Question) map[string]int {
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		index[q.ID] = i
	}

	return index
}
