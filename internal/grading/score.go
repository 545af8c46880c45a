package grading

import (
	"math"
	"strconv"
)

// Score 通过率百分比，未精确取整
func Score(passed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}

// DisplayPercent 仅在展示时四舍五入，66.67 -> "67%"
func DisplayPercent(score float64) string {
	return strconv.FormatFloat(math.Round(score), 'f', 0, 64) + "%"
}

func PointsEarned(results []TestCaseResult) float64 {
	var sum float64
	for _, r := range results {
		if r.Passed {
			sum += r.Points
		}
	}
	return sum
}
