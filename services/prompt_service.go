package services

import (
	"encoding/json"
	"fmt"

	"college_pathfinder/models"
)

// BuildScorePrompt asks the model to refine a heuristic match score for one
// (preference, college) pair. The response contract is a bare JSON object.
func BuildScorePrompt(pref models.UserPreference, college models.College, heuristicScore float64) string {
	prefJSON, _ := json.Marshal(pref)
	collegeJSON, _ := json.Marshal(college)

	return fmt.Sprintf(
		"You are an educational guidance assistant. "+
			"Given a student's preference profile and detailed college information, "+
			"provide an updated suitability score on a 0-100 scale (higher is better) "+
			"and a concise explanation (one sentence). Respond strictly with JSON in the format:\n"+
			"{\"score\": <number>, \"explanation\": \"<one sentence>\"}\n\n"+
			"Student preferences:\n%s\n\n"+
			"College data:\n%s\n\n"+
			"Heuristic score (for reference): %.1f\n"+
			"Return only the JSON object.",
		prefJSON, collegeJSON, heuristicScore)
}

// BuildInsightsPrompt asks the model for exactly three coaching insights
// over the student's saved college list, as a bare JSON array.
func BuildInsightsPrompt(pref models.UserPreference, saved []models.SavedCollege) string {
	prefJSON, _ := json.Marshal(pref)
	savedJSON, _ := json.Marshal(saved)

	return fmt.Sprintf(
		"You are an educational guidance coach. Using the student's saved college list and "+
			"their preference profile, produce 3 concise recommendations to guide their next steps. "+
			"Each recommendation should have a short title (maximum 7 words) and a one sentence "+
			"description referencing specific data when possible. Respond strictly as JSON with the "+
			"format:\n"+
			"[{\"title\": \"...\", \"description\": \"...\"}]\n\n"+
			"Student preferences:\n%s\n\n"+
			"Saved colleges:\n%s\n\n"+
			"Return only the JSON array.",
		prefJSON, savedJSON)
}
