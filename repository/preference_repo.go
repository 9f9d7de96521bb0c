package repository

import (
	"college_pathfinder/db"
	"college_pathfinder/models"
)

// GetUserPreference loads the preference profile for a user. Nothing
// enforces one row per user, so the first row returned wins.
func GetUserPreference(userID string) (*models.UserPreference, error) {
	rows, err := db.Store.SelectWhere("user_preferences", models.Row{"user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	pref := models.PreferenceFromRow(rows[0])
	return &pref, nil
}
