package report

import (
	"sort"

	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/user"
)

// Stats summarizes a user's quiz attempts.
type Stats struct {
	TotalAttempts    int     `json:"totalAttempts"`
	AvgCorrectRatio  float64 `json:"avgCorrectRatio"`
	BestCorrectRatio float64 `json:"bestCorrectRatio"`
}

// ComputeUserStats averages the per-attempt correct ratios. An attempt without questions
// counts as a ratio of 0. No attempts yield zero stats.
func ComputeUserStats(attempts []quiz.Attempt) Stats {
	stats := Stats{TotalAttempts: len(attempts)}
	if len(attempts) == 0 {
		return stats
	}

	var sum float64
	for _, a := range attempts {
		var ratio float64
		if a.Total > 0 {
			ratio = float64(a.Score) / float64(a.Total)
		}
		sum += ratio
		if ratio > stats.BestCorrectRatio {
			stats.BestCorrectRatio = ratio
		}
	}
	stats.AvgCorrectRatio = sum / float64(len(attempts))
	return stats
}

// StudentRow is one line of the teacher's cohort view.
type StudentRow struct {
	progress.View
	Stats   Stats         `json:"stats"`
	Student user.Identity `json:"student"`
}

// RankStudents sorts rows by points, then visited count, then most recent update, all descending.
// Equal rows keep their order.
func RankStudents(rows []StudentRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.VisitedCount != b.VisitedCount {
			return a.VisitedCount > b.VisitedCount
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
}
