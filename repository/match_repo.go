package repository

import (
	"college_pathfinder/db"
	"college_pathfinder/logger"
	"college_pathfinder/models"
)

const cachedScoreSelect = "id,score,heuristic_score,notes,llm,college_id,colleges:college_id(id,name,location,average_cost,acceptance_rate,ranking)"

// GetCachedScores reads the cached match results for a user, re-joining the
// college fields so the response matches a fresh computation. Zero rows
// means cache miss.
func GetCachedScores(userID string) ([]models.MatchResult, error) {
	rows, err := db.Store.SelectQuery("match_recommendations", cachedScoreSelect, models.Row{"user_id": userID}, "")
	if err != nil {
		return nil, err
	}

	results := make([]models.MatchResult, 0, len(rows))
	for _, row := range rows {
		result := models.MatchResult{
			Notes: notesFromRow(row["notes"]),
			LLM:   llmFromRow(row["llm"]),
		}
		if id := models.AsInt(row["college_id"]); id != nil {
			result.CollegeID = *id
		}
		if score := models.AsFloat(row["score"]); score != nil {
			result.Score = *score
		}
		result.HeuristicScore = models.AsFloat(row["heuristic_score"])

		if college, ok := row["colleges"].(map[string]any); ok && college != nil {
			result.CollegeName = models.AsString(college["name"])
			result.Location = models.AsString(college["location"])
			result.AverageCost = models.AsFloat(college["average_cost"])
			result.AcceptanceRate = models.NormalizePercent(models.AsFloat(college["acceptance_rate"]))
			result.Ranking = models.AsInt(college["ranking"])
		}
		results = append(results, result)
	}
	return results, nil
}

// ReplaceScores clears the user's cached scores and writes the new set.
// The cache is best-effort: failures are logged and swallowed, never
// surfaced to the request.
func ReplaceScores(userID string, results []models.MatchResult) {
	if len(results) == 0 {
		return
	}

	if err := db.Store.Delete("match_recommendations", models.Row{"user_id": userID}); err != nil {
		logger.Error("Failed clearing cached match recommendations", "user_id", userID, "error", err)
	}

	payload := make([]models.Row, 0, len(results))
	for _, item := range results {
		row := models.Row{
			"user_id":         userID,
			"college_id":      item.CollegeID,
			"score":           item.Score,
			"heuristic_score": item.HeuristicScore,
			"notes":           item.Notes,
		}
		if item.LLM != nil {
			row["llm"] = item.LLM
		}
		payload = append(payload, row)
	}

	if _, err := db.Store.Upsert("match_recommendations", payload, "user_id,college_id"); err != nil {
		logger.Error("Failed to cache match recommendations", "user_id", userID, "error", err)
	}
}

func notesFromRow(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	notes := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			notes = append(notes, s)
		}
	}
	return notes
}

func llmFromRow(v any) *models.LLMDetail {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil
	}
	return &models.LLMDetail{
		ModelScore:       models.AsFloat(m["model_score"]),
		ModelExplanation: models.AsString(m["model_explanation"]),
	}
}
