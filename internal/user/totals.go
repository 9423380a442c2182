package user

// CategoryTotal is the accumulated play time for one category.
type CategoryTotal struct {
	Minutes int     `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// Summary is the play-time report across all categories.
type Summary struct {
	Categories   map[string]CategoryTotal `json:"categories"`
	TotalMinutes int                      `json:"total_minutes"`
	TotalHours   float64                  `json:"total_hours"`
}

// BucketMinutes returns the total minutes represented by one category's
// buckets: each count weighted by its duration.
func BucketMinutes(buckets []int) int {
	total := 0
	for i, mins := range MinuteBuckets {
		if i >= len(buckets) {
			break
		}
		total += buckets[i] * mins
	}
	return total
}

// Summarize computes per-category and grand play-time totals for a token
// set. The input is normalized first, so short or malformed sets still
// produce a complete report.
func Summarize(tokens TokenSet) Summary {
	normalized := NormalizeTokens(tokens)
	summary := Summary{Categories: make(map[string]CategoryTotal, len(Categories))}
	for _, cat := range Categories {
		minutes := BucketMinutes(normalized[cat])
		summary.Categories[cat] = CategoryTotal{
			Minutes: minutes,
			Hours:   float64(minutes) / 60.0,
		}
		summary.TotalMinutes += minutes
	}
	summary.TotalHours = float64(summary.TotalMinutes) / 60.0
	return summary
}
