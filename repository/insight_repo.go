package repository

import (
	"college_pathfinder/db"
	"college_pathfinder/logger"
	"college_pathfinder/models"
)

// GetCachedInsights reads the cached insights for a user in display order.
// Zero rows means cache miss.
func GetCachedInsights(userID string) ([]models.Insight, error) {
	rows, err := db.Store.SelectQuery("match_insights", "id,sort_order,title,insight,metadata", models.Row{"user_id": userID}, "sort_order.asc")
	if err != nil {
		return nil, err
	}

	insights := make([]models.Insight, 0, len(rows))
	for _, row := range rows {
		insight := models.Insight{
			Title:       models.AsString(row["title"]),
			Description: models.AsString(row["insight"]),
		}
		if meta, ok := row["metadata"].(map[string]any); ok {
			insight.Metadata = meta
		}
		insights = append(insights, insight)
	}
	return insights, nil
}

// ReplaceInsights clears the user's cached insights and writes the new set,
// keyed by position. Best-effort like the score cache.
func ReplaceInsights(userID string, insights []models.Insight) {
	if err := db.Store.Delete("match_insights", models.Row{"user_id": userID}); err != nil {
		logger.Error("Failed clearing cached insights", "user_id", userID, "error", err)
	}

	payload := make([]models.Row, 0, len(insights))
	for i, item := range insights {
		payload = append(payload, models.Row{
			"user_id":    userID,
			"sort_order": i,
			"title":      item.Title,
			"insight":    item.Description,
			"metadata":   item.Metadata,
		})
	}

	if _, err := db.Store.Insert("match_insights", payload); err != nil {
		logger.Error("Failed to cache insights", "user_id", userID, "error", err)
	}
}
