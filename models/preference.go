package models

// UserPreference mirrors a row of the user_preferences table. One row per
// user by convention; when several exist the first row returned wins.
type UserPreference struct {
	UserID            string   `json:"user_id"`
	Budget            *float64 `json:"budget"`
	GPA               *float64 `json:"gpa"`
	IntendedMajor     string   `json:"intended_major"`
	PreferredLocation string   `json:"preferred_location"`
}

// PreferenceFromRow builds a UserPreference from a gateway row.
func PreferenceFromRow(row Row) UserPreference {
	return UserPreference{
		UserID:            AsString(row["user_id"]),
		Budget:            AsFloat(row["budget"]),
		GPA:               AsFloat(row["gpa"]),
		IntendedMajor:     AsString(row["intended_major"]),
		PreferredLocation: AsString(row["preferred_location"]),
	}
}
