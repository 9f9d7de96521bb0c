package models

// College mirrors a row of the colleges table. Rows are created by the
// ingestion scripts; the API only reads them.
type College struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Location       string   `json:"location"`
	Ranking        *int     `json:"ranking"`
	URL            string   `json:"url,omitempty"`
	GradRate       *float64 `json:"grad_rate,omitempty"`
	AverageCost    *float64 `json:"average_cost"`
	AcceptanceRate *float64 `json:"acceptance_rate"` // percent, 0-100
	MedianSalary   *float64 `json:"median_salary,omitempty"`
	Size           *int     `json:"size,omitempty"`
}

// CollegeFromRow builds a College from a gateway row. The acceptance rate is
// normalized to percent here so downstream code never guesses the unit.
func CollegeFromRow(row Row) College {
	id := 0
	if v := AsInt(row["id"]); v != nil {
		id = *v
	}
	return College{
		ID:             id,
		Name:           AsString(row["name"]),
		Location:       AsString(row["location"]),
		Ranking:        AsInt(row["ranking"]),
		URL:            AsString(row["url"]),
		GradRate:       AsFloat(row["grad_rate"]),
		AverageCost:    AsFloat(row["average_cost"]),
		AcceptanceRate: NormalizePercent(AsFloat(row["acceptance_rate"])),
		MedianSalary:   AsFloat(row["median_salary"]),
		Size:           AsInt(row["size"]),
	}
}

// Program mirrors a row of the programs table. Each program belongs to
// exactly one college; name uniqueness within a college is the ingestion
// side's responsibility.
type Program struct {
	ID             int    `json:"id"`
	CollegeID      int    `json:"college_id"`
	Name           string `json:"name"`
	DegreeType     string `json:"degree_type,omitempty"`
	FieldOfStudy   string `json:"field_of_study,omitempty"`
	Prestige       *int   `json:"prestige,omitempty"`
	RankingInField *int   `json:"ranking_in_field,omitempty"`
	Specialty      string `json:"specialty,omitempty"`
}

// ProgramFromRow builds a Program from a gateway row.
func ProgramFromRow(row Row) Program {
	id := 0
	if v := AsInt(row["id"]); v != nil {
		id = *v
	}
	collegeID := 0
	if v := AsInt(row["college_id"]); v != nil {
		collegeID = *v
	}
	return Program{
		ID:             id,
		CollegeID:      collegeID,
		Name:           AsString(row["name"]),
		DegreeType:     AsString(row["degree_type"]),
		FieldOfStudy:   AsString(row["field_of_study"]),
		Prestige:       AsInt(row["prestige"]),
		RankingInField: AsInt(row["ranking_in_field"]),
		Specialty:      AsString(row["specialty"]),
	}
}

// SavedCollege is a saved_colleges row joined with its college fields, the
// shape the insight generator consumes.
type SavedCollege struct {
	CollegeID      int      `json:"college_id"`
	Name           string   `json:"name"`
	Location       string   `json:"location"`
	Ranking        *int     `json:"ranking"`
	AverageCost    *float64 `json:"average_cost"`
	AcceptanceRate *float64 `json:"acceptance_rate"` // percent, 0-100
	MatchScore     *float64 `json:"match_score"`
}
