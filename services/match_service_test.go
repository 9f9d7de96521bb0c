package services

import (
	"errors"
	"testing"

	"college_pathfinder/models"
)

type stubInferencer struct {
	output string
	err    error
	calls  int
}

func (s *stubInferencer) Generate(prompt string) (string, error) {
	s.calls++
	return s.output, s.err
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func containsNote(notes []string, want string) bool {
	for _, note := range notes {
		if note == want {
			return true
		}
	}
	return false
}

func TestMaxRankingNeverZero(t *testing.T) {
	if got := MaxRanking(nil); got != 1 {
		t.Fatalf("MaxRanking(nil) = %d, want 1", got)
	}
	colleges := []models.College{
		{Ranking: iptr(12)},
		{Ranking: nil},
		{Ranking: iptr(40)},
	}
	if got := MaxRanking(colleges); got != 40 {
		t.Fatalf("MaxRanking = %d, want 40", got)
	}
}

func TestCalculateMatchScoreBaseline(t *testing.T) {
	result := CalculateMatchScore(models.UserPreference{}, models.College{ID: 7, Name: "Nowhere U"}, 1, nil)

	if result.Score != 50.0 {
		t.Fatalf("baseline score = %v, want 50.0", result.Score)
	}
	if result.HeuristicScore == nil || *result.HeuristicScore != 50.0 {
		t.Fatalf("baseline heuristic score = %v, want 50.0", result.HeuristicScore)
	}
	if !containsNote(result.Notes, "Limited data available; showing a baseline score.") {
		t.Fatalf("baseline note missing, notes = %v", result.Notes)
	}
	if result.LLM != nil {
		t.Fatalf("unexpected llm detail on heuristic-only result")
	}
}

func TestCalculateMatchScoreAllFactors(t *testing.T) {
	pref := models.UserPreference{
		UserID: "u1",
		Budget: fptr(60000),
		GPA:    fptr(3.6),
	}
	college := models.College{
		ID:             3,
		Name:           "Alpha College",
		AverageCost:    fptr(40000),
		AcceptanceRate: fptr(45),
		Ranking:        iptr(5),
	}

	result := CalculateMatchScore(pref, college, 10, nil)

	// affordability 1.0*0.40 + admissions (0.6*0.9+0.4*0.45)*0.35 + ranking 0.5*0.25
	if result.Score != 77.7 {
		t.Fatalf("score = %v, want 77.7", result.Score)
	}
	if !containsNote(result.Notes, "Fits within your stated budget.") {
		t.Errorf("budget note missing, notes = %v", result.Notes)
	}
	if !containsNote(result.Notes, "Academic profile aligns with historical admits.") {
		t.Errorf("admissions note missing, notes = %v", result.Notes)
	}
	if !containsNote(result.Notes, "Solid ranking relative to the field.") {
		t.Errorf("ranking tier note missing, notes = %v", result.Notes)
	}
}

func TestCalculateMatchScoreOverBudget(t *testing.T) {
	pref := models.UserPreference{Budget: fptr(20000)}
	college := models.College{AverageCost: fptr(50000)}

	result := CalculateMatchScore(pref, college, 1, nil)

	if !containsNote(result.Notes, "Costs more than your budget but may still be manageable.") {
		t.Fatalf("over-budget note missing, notes = %v", result.Notes)
	}
	// affordability 20000/50000 = 0.4, the only contributing factor
	if result.Score != 40.0 {
		t.Fatalf("score = %v, want 40.0", result.Score)
	}
}

func TestCalculateMatchScoreIgnoresZeroInputs(t *testing.T) {
	pref := models.UserPreference{Budget: fptr(0), GPA: fptr(0)}
	college := models.College{AverageCost: fptr(30000), AcceptanceRate: fptr(50), Ranking: iptr(0)}

	result := CalculateMatchScore(pref, college, 1, nil)

	if result.Score != 50.0 {
		t.Fatalf("score = %v, want baseline 50.0", result.Score)
	}
	if !containsNote(result.Notes, "Limited data available; showing a baseline score.") {
		t.Fatalf("baseline note missing, notes = %v", result.Notes)
	}
}

func TestCalculateMatchScoreClampsRefinedScore(t *testing.T) {
	gen := &stubInferencer{output: `{"score": 150, "explanation": "Exceptional fit overall."}`}
	pref := models.UserPreference{Budget: fptr(60000)}
	college := models.College{AverageCost: fptr(30000)}

	result := CalculateMatchScore(pref, college, 1, gen)

	if result.Score != 100.0 {
		t.Fatalf("refined score = %v, want clamp to 100.0", result.Score)
	}
	if result.HeuristicScore == nil || *result.HeuristicScore != 100.0 {
		t.Fatalf("heuristic score = %v, want 100.0", result.HeuristicScore)
	}
	if result.LLM == nil || result.LLM.ModelScore == nil || *result.LLM.ModelScore != 100.0 {
		t.Fatalf("llm detail = %+v, want model score 100.0", result.LLM)
	}
	if !containsNote(result.Notes, "Exceptional fit overall.") {
		t.Fatalf("explanation not appended to notes: %v", result.Notes)
	}
}

func TestCalculateMatchScoreScalesFractionalScore(t *testing.T) {
	gen := &stubInferencer{output: `{"score": 0.83, "reason": "Strong alignment."}`}

	result := CalculateMatchScore(models.UserPreference{}, models.College{}, 1, gen)

	if result.Score != 83.0 {
		t.Fatalf("refined score = %v, want 83.0", result.Score)
	}
	if result.LLM == nil || result.LLM.ModelExplanation != "Strong alignment." {
		t.Fatalf("llm detail = %+v, want reason carried as explanation", result.LLM)
	}
}

func TestCalculateMatchScoreSwallowsRefinementFailure(t *testing.T) {
	gen := &stubInferencer{err: errors.New("backend down")}

	result := CalculateMatchScore(models.UserPreference{}, models.College{}, 1, gen)

	if result.Score != 50.0 {
		t.Fatalf("score = %v, want heuristic 50.0 after refinement failure", result.Score)
	}
	if result.LLM != nil {
		t.Fatalf("llm detail = %+v, want nil after refinement failure", result.LLM)
	}
	if gen.calls != 1 {
		t.Fatalf("inferencer calls = %d, want 1", gen.calls)
	}
}

func TestSortByScoreStable(t *testing.T) {
	results := []models.MatchResult{
		{CollegeID: 1, Score: 30.2},
		{CollegeID: 2, Score: 91.5},
		{CollegeID: 3, Score: 91.5},
		{CollegeID: 4, Score: 10.0},
	}

	SortByScore(results)

	wantOrder := []int{2, 3, 1, 4}
	for i, want := range wantOrder {
		if results[i].CollegeID != want {
			t.Fatalf("position %d has college %d, want %d (order %v)", i, results[i].CollegeID, want, results)
		}
	}
}

func TestScoreCollegesOrdersBestFirst(t *testing.T) {
	pref := models.UserPreference{Budget: fptr(50000)}
	colleges := []models.College{
		{ID: 1, Name: "Costly", AverageCost: fptr(100000)},
		{ID: 2, Name: "Affordable", AverageCost: fptr(25000)},
	}

	results := ScoreColleges(pref, colleges, nil)

	if len(results) != 2 {
		t.Fatalf("result count = %d, want 2", len(results))
	}
	if results[0].CollegeID != 2 {
		t.Fatalf("best result is college %d, want 2", results[0].CollegeID)
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("results not descending: %v then %v", results[0].Score, results[1].Score)
	}
}
