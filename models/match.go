package models

// LLMDetail carries the model-refined score and its explanation when the
// inference backend contributed to a match result.
type LLMDetail struct {
	ModelScore       *float64 `json:"model_score,omitempty"`
	ModelExplanation string   `json:"model_explanation,omitempty"`
}

// MatchResult is one scored (user, college) pair. Score is the final value;
// HeuristicScore is always the rule-based one, retained even when the
// inference backend overrode the final score.
type MatchResult struct {
	CollegeID      int        `json:"college_id"`
	CollegeName    string     `json:"college_name"`
	Location       string     `json:"location"`
	AverageCost    *float64   `json:"average_cost"`
	AcceptanceRate *float64   `json:"acceptance_rate"` // percent, 0-100
	Ranking        *int       `json:"ranking"`
	Score          float64    `json:"score"`
	HeuristicScore *float64   `json:"heuristic_score"`
	Notes          []string   `json:"notes"`
	LLM            *LLMDetail `json:"llm,omitempty"`
}

// Insight is one coaching recommendation shown to the user.
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Metadata    Row    `json:"metadata"`
}
