package marketing

// MaxLeadScore caps the computed lead score
const MaxLeadScore = 100

// CalculateScore computes the lead score from profile completeness, rating and status
func CalculateScore(l *Lead) int {
	score := 0
	if l.Email != "" {
		score += 10
	}
	if l.Phone != "" || l.Mobile != "" {
		score += 10
	}
	if l.CompanyName != "" {
		score += 10
	}
	if l.Industry != "" {
		score += 5
	}
	if l.EstimatedValue != nil && l.EstimatedValue.IsPositive() {
		score += 15
	}

	switch l.Rating {
	case LeadRatingHot:
		score += 30
	case LeadRatingWarm:
		score += 20
	case LeadRatingCold:
		score += 10
	}

	switch l.Status {
	case LeadStatusQualified:
		score += 20
	case LeadStatusContacted:
		score += 10
	}

	if score > MaxLeadScore {
		return MaxLeadScore
	}
	return score
}
