package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"college_pathfinder/logger"
	"college_pathfinder/models"
	"college_pathfinder/utils"
)

const maxInsights = 3

// GenerateInsights produces up to three coaching insights for the student's
// saved college list. The model path is attempted first when gen is non-nil;
// every failure along it falls back to the rule-based generator so the
// endpoint never returns an empty set for a non-empty list.
func GenerateInsights(gen Inferencer, pref models.UserPreference, saved []models.SavedCollege) []models.Insight {
	if gen == nil {
		return RuleBasedInsights(pref, saved)
	}

	generated, err := gen.Generate(BuildInsightsPrompt(pref, saved))
	if err != nil {
		logger.Warn("Insight generation failed", "error", err)
		return RuleBasedInsights(pref, saved)
	}

	insights := parseInsightList(generated)
	if len(insights) == 0 {
		return RuleBasedInsights(pref, saved)
	}
	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

type insightPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func parseInsightList(generated string) []models.Insight {
	fragment := utils.ExtractJSONArray(generated)
	if fragment == "" {
		return nil
	}

	var parsed []insightPayload
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		logger.Warn("Insight generation returned malformed JSON", "error", err)
		return nil
	}

	insights := make([]models.Insight, 0, len(parsed))
	for _, item := range parsed {
		title := strings.TrimSpace(item.Title)
		description := strings.TrimSpace(item.Description)
		if title != "" && description != "" {
			insights = append(insights, models.Insight{Title: title, Description: description})
		}
	}
	return insights
}

// RuleBasedInsights derives insights directly from the saved list: best
// match first, then budget fit, then admission-odds balance, then major
// coverage, padded from a fixed fallback set and capped at three.
func RuleBasedInsights(pref models.UserPreference, saved []models.SavedCollege) []models.Insight {
	insights := []models.Insight{}

	byScore := make([]models.SavedCollege, len(saved))
	copy(byScore, saved)
	sort.SliceStable(byScore, func(i, j int) bool {
		return scoreOrZero(byScore[i].MatchScore) > scoreOrZero(byScore[j].MatchScore)
	})

	if len(byScore) > 0 && byScore[0].Name != "" {
		top := byScore[0]
		scoreText := "strong"
		if top.MatchScore != nil {
			scoreText = fmt.Sprintf("%d%%", int(math.Round(*top.MatchScore)))
		}
		insights = append(insights, models.Insight{
			Title: "Prioritize Your Best Fit",
			Description: fmt.Sprintf(
				"%s aligns well with your profile (%s). Review their application checklist and deadlines next.",
				top.Name, scoreText),
		})
	}

	if pref.Budget != nil {
		budget := *pref.Budget
		var overBudget *models.SavedCollege
		for i := range saved {
			cost := 0.0
			if saved[i].AverageCost != nil {
				cost = *saved[i].AverageCost
			}
			if cost > budget {
				if overBudget == nil || cost > scoreOrZero(overBudget.AverageCost) {
					overBudget = &saved[i]
				}
			}
		}
		if overBudget != nil {
			insights = append(insights, models.Insight{
				Title: "Map Out Financial Fit",
				Description: fmt.Sprintf(
					"%s averages %s per year, above your %s budget. Explore aid options or adjust your cost filters.",
					overBudget.Name,
					utils.FormatCurrency(overBudget.AverageCost),
					utils.FormatCurrency(pref.Budget)),
			})
		} else {
			var valuePick *models.SavedCollege
			for i := range saved {
				if saved[i].AverageCost == nil {
					continue
				}
				if valuePick == nil || *saved[i].AverageCost < *valuePick.AverageCost {
					valuePick = &saved[i]
				}
			}
			if valuePick != nil && valuePick.Name != "" {
				insights = append(insights, models.Insight{
					Title: "Plan Your Campus Visits",
					Description: fmt.Sprintf(
						"%s fits within your budget at %s. Schedule a visit or virtual tour to validate the fit.",
						valuePick.Name, utils.FormatCurrency(valuePick.AverageCost)),
				})
			}
		}
	}

	var rates []float64
	for _, college := range saved {
		if college.AcceptanceRate != nil {
			rates = append(rates, *college.AcceptanceRate)
		}
	}
	if len(rates) > 0 {
		lowest, highest := rates[0], rates[0]
		for _, rate := range rates[1:] {
			lowest = math.Min(lowest, rate)
			highest = math.Max(highest, rate)
		}
		if lowest < 30.0 {
			insights = append(insights, models.Insight{
				Title: "Balance Admission Odds",
				Description: "Your list leans toward competitive schools. Add a safety option with a higher " +
					"acceptance rate to keep your plan resilient.",
			})
		} else if highest > 55.0 {
			insights = append(insights, models.Insight{
				Title: "Lock In A Likely Admit",
				Description: "You have solid admission odds at one or more schools. Prepare application " +
					"materials now to submit early and secure that offer.",
			})
		}
	}

	major := strings.TrimSpace(pref.IntendedMajor)
	if major != "" && !listMentions(saved, major) {
		insights = append(insights, models.Insight{
			Title: "Validate Major Fit",
			Description: fmt.Sprintf(
				"Research program details for %s at your saved colleges and make sure your short list still aligns with that goal.",
				major),
		})
	}

	fallbacks := []models.Insight{
		{
			Title:       "Refresh Your Preferences",
			Description: "Take a moment to update GPA, test scores, and interests so your recommendations stay accurate.",
		},
		{
			Title:       "Expand Your College List",
			Description: "Add one more college that complements your current picks to keep reach, match, and safety options balanced.",
		},
		{
			Title:       "Plan Application Milestones",
			Description: "Create deadlines for essays, recommendations, and financial aid to stay ahead of each school's timeline.",
		},
	}

	seen := map[string]bool{}
	for _, insight := range insights {
		seen[insight.Title] = true
	}
	for _, fallback := range fallbacks {
		if len(insights) >= maxInsights {
			break
		}
		if !seen[fallback.Title] {
			insights = append(insights, fallback)
			seen[fallback.Title] = true
		}
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

// DefaultInsight is served when the user has no saved colleges yet.
func DefaultInsight() models.Insight {
	return models.Insight{
		Title:       "Review Your Preferences",
		Description: "Update your profile preferences to unlock tailored insights.",
	}
}

func listMentions(saved []models.SavedCollege, term string) bool {
	needle := strings.ToLower(term)
	for _, college := range saved {
		if strings.Contains(strings.ToLower(college.Name), needle) ||
			strings.Contains(strings.ToLower(college.Location), needle) {
			return true
		}
	}
	return false
}

func scoreOrZero(v *float64) float64 {
	if v == nil {
		return 0.0
	}
	return *v
}
