package repository

import (
	"college_pathfinder/db"
	"college_pathfinder/models"
)

// ListColleges returns every college, in table order. The scoring engine
// relies on that order as the tie-break for equal scores.
func ListColleges() ([]models.College, error) {
	rows, err := db.Store.Select("colleges")
	if err != nil {
		return nil, err
	}
	colleges := make([]models.College, 0, len(rows))
	for _, row := range rows {
		colleges = append(colleges, models.CollegeFromRow(row))
	}
	return colleges, nil
}

const savedCollegeSelect = "college_id,match_score,colleges:college_id(id,name,location,ranking,average_cost,acceptance_rate)"

// ListSavedColleges returns the user's saved colleges joined with the
// college fields the insight generator needs. Rows whose college no longer
// exists are skipped.
func ListSavedColleges(userID string) ([]models.SavedCollege, error) {
	rows, err := db.Store.SelectQuery("saved_colleges", savedCollegeSelect, models.Row{"user_id": userID}, "")
	if err != nil {
		return nil, err
	}

	saved := make([]models.SavedCollege, 0, len(rows))
	for _, row := range rows {
		college, ok := row["colleges"].(map[string]any)
		if !ok || college == nil {
			continue
		}
		item := models.SavedCollege{
			Name:           models.AsString(college["name"]),
			Location:       models.AsString(college["location"]),
			Ranking:        models.AsInt(college["ranking"]),
			AverageCost:    models.AsFloat(college["average_cost"]),
			AcceptanceRate: models.NormalizePercent(models.AsFloat(college["acceptance_rate"])),
			MatchScore:     models.AsFloat(row["match_score"]),
		}
		if id := models.AsInt(row["college_id"]); id != nil {
			item.CollegeID = *id
		}
		saved = append(saved, item)
	}
	return saved, nil
}
