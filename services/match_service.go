package services

import (
	"math"
	"sort"

	"college_pathfinder/models"
)

// Sub-score weights. Each weight only counts toward the denominator when
// its inputs are present, so missing data shrinks the scale instead of
// dragging the score down.
const (
	affordabilityWeight = 0.40
	admissionsWeight    = 0.35
	rankingWeight       = 0.25
)

// MaxRanking returns the worst (largest) ranking across the candidate set,
// never less than 1 so the ranking normalization cannot divide by zero.
func MaxRanking(colleges []models.College) int {
	maxRanking := 0
	for _, college := range colleges {
		if college.Ranking != nil && *college.Ranking > maxRanking {
			maxRanking = *college.Ranking
		}
	}
	if maxRanking == 0 {
		return 1
	}
	return maxRanking
}

// CalculateMatchScore computes the weighted match score for one
// (preference, college) pair, with notes explaining each contribution.
// When refiner is non-nil the heuristic score is sent out for refinement;
// any refinement failure leaves the heuristic score as the final one.
func CalculateMatchScore(pref models.UserPreference, college models.College, maxRanking int, refiner Inferencer) models.MatchResult {
	totalWeight := 0.0
	accumulator := 0.0
	notes := []string{}

	if pref.Budget != nil && *pref.Budget != 0 && college.AverageCost != nil && *college.AverageCost != 0 {
		affordability := 1.0
		if *college.AverageCost > 0 {
			affordability = *pref.Budget / *college.AverageCost
		}
		accumulator += clamp01(affordability) * affordabilityWeight
		totalWeight += affordabilityWeight
		if *college.AverageCost <= *pref.Budget {
			notes = append(notes, "Fits within your stated budget.")
		} else {
			notes = append(notes, "Costs more than your budget but may still be manageable.")
		}
	}

	if pref.GPA != nil && *pref.GPA != 0 && college.AcceptanceRate != nil {
		gpaNorm := clamp01(*pref.GPA / 4.0)
		acceptanceNorm := clamp01(*college.AcceptanceRate / 100.0)
		admissionsFit := 0.6*gpaNorm + 0.4*acceptanceNorm
		accumulator += admissionsFit * admissionsWeight
		totalWeight += admissionsWeight
		notes = append(notes, "Academic profile aligns with historical admits.")
	}

	if college.Ranking != nil && *college.Ranking != 0 {
		ranking := float64(*college.Ranking)
		rankingNorm := 1.0 - math.Min(ranking/float64(maxRanking), 1.0)
		accumulator += rankingNorm * rankingWeight
		totalWeight += rankingWeight
		switch {
		case ranking <= float64(maxRanking)*0.2:
			notes = append(notes, "Highly ranked option in your results.")
		case ranking <= float64(maxRanking)*0.5:
			notes = append(notes, "Solid ranking relative to the field.")
		default:
			notes = append(notes, "Ranking provides a balanced safety option.")
		}
	}

	normalized := 0.5
	if totalWeight == 0 {
		notes = append(notes, "Limited data available; showing a baseline score.")
	} else {
		normalized = accumulator / totalWeight
	}

	heuristicScore := roundScore(normalized * 100.0)
	finalScore := heuristicScore
	var llm *models.LLMDetail

	if refiner != nil {
		prompt := BuildScorePrompt(pref, college, heuristicScore)
		modelScore, explanation := InferScore(refiner, prompt)
		if modelScore != nil || explanation != "" {
			llm = &models.LLMDetail{}
		}
		if modelScore != nil {
			finalScore = roundScore(math.Max(0.0, math.Min(*modelScore, 100.0)))
			llm.ModelScore = &finalScore
		}
		if explanation != "" {
			notes = append(notes, explanation)
			llm.ModelExplanation = explanation
		}
	}

	return models.MatchResult{
		CollegeID:      college.ID,
		CollegeName:    college.Name,
		Location:       college.Location,
		AverageCost:    college.AverageCost,
		AcceptanceRate: college.AcceptanceRate,
		Ranking:        college.Ranking,
		Score:          finalScore,
		HeuristicScore: &heuristicScore,
		Notes:          notes,
		LLM:            llm,
	}
}

// ScoreColleges scores the whole candidate list and returns it sorted by
// final score, descending. The sort is stable: ties keep table order.
func ScoreColleges(pref models.UserPreference, colleges []models.College, refiner Inferencer) []models.MatchResult {
	maxRanking := MaxRanking(colleges)
	results := make([]models.MatchResult, 0, len(colleges))
	for _, college := range colleges {
		results = append(results, CalculateMatchScore(pref, college, maxRanking, refiner))
	}
	SortByScore(results)
	return results
}

// SortByScore orders results by final score descending, preserving the
// relative order of equal scores.
func SortByScore(results []models.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(v, 1.0))
}

// roundScore rounds to one decimal, the precision every score is stored
// and served with.
func roundScore(v float64) float64 {
	return math.Round(v*10) / 10
}
