package domain

// severity weights for the aggregate score
var severityWeight = map[Severity]float64{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

const scoreCap = 5.0

// AggregateScore computes the confidence weighted severity score over the
// active violations of a request. Superseded rows are excluded before
// averaging and the result is capped at 5.0
func AggregateScore(vs []Violation) (score float64, active int) {
	superseded := make(map[string]bool, len(vs))
	for _, v := range vs {
		if v.Supersedes != nil {
			superseded[*v.Supersedes] = true
		}
	}

	var sum float64
	for _, v := range vs {
		if superseded[v.ID] {
			continue
		}
		sum += severityWeight[v.Severity] * v.Confidence
		active++
	}
	if active == 0 {
		return 0, 0
	}

	score = sum / float64(active)
	if score > scoreCap {
		score = scoreCap
	}
	return score, active
}
