package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"college_pathfinder/config"
	_ "college_pathfinder/docs" // swagger docs
	"college_pathfinder/logger"
	"college_pathfinder/models"
	"college_pathfinder/repository"
	"college_pathfinder/services"
	"college_pathfinder/utils"
)

// MatchScoresHandler godoc
// @Summary Compute match scores for a user's preferences against all colleges
// @Description Scores every college against the user's preference profile. Results are cached per user; pass refresh=true to recompute and use_llm=true to refine scores with the inference backend.
// @Tags matching
// @Accept json
// @Produce json
// @Param user_id query string true "User ID"
// @Param use_llm query boolean false "Refine scores with the inference backend"
// @Param refresh query boolean false "Bypass the cache and recompute"
// @Param limit query integer false "Maximum number of results"
// @Success 200 {object} map[string]interface{} "Scored results, best first"
// @Failure 400 {object} map[string]interface{} "Missing user_id"
// @Failure 404 {object} map[string]interface{} "No preference profile or no colleges"
// @Router /match-scores/ [get]
func MatchScoresHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		utils.WriteDetail(w, http.StatusBadRequest, "Query parameter 'user_id' is required.")
		return
	}

	useLLM := utils.ParseBoolFlag(r.URL.Query().Get("use_llm"))
	refresh := utils.ParseBoolFlag(r.URL.Query().Get("refresh"))

	inferencer := services.NewHFClient(cfg)
	llmAvailable := inferencer != nil
	llmActive := useLLM && llmAvailable

	pref, err := repository.GetUserPreference(userID)
	if err != nil {
		utils.WriteDetail(w, http.StatusInternalServerError, "Failed to load user preferences.")
		return
	}
	if pref == nil {
		utils.WriteDetail(w, http.StatusNotFound, "No preference profile found for this user.")
		return
	}

	colleges, err := repository.ListColleges()
	if err != nil {
		utils.WriteDetail(w, http.StatusInternalServerError, "Failed to load colleges.")
		return
	}
	if len(colleges) == 0 {
		utils.WriteDetail(w, http.StatusNotFound, "No colleges available to score.")
		return
	}

	var results []models.MatchResult
	fromCache := false

	if !refresh {
		cached, err := repository.GetCachedScores(userID)
		if err != nil {
			logger.Warn("Reading cached match scores failed", "user_id", userID, "error", err)
		} else if len(cached) > 0 {
			fromCache = true
			results = cached
		}
	}

	if len(results) == 0 {
		var refiner services.Inferencer
		if llmActive {
			refiner = inferencer
		}
		results = services.ScoreColleges(*pref, colleges, refiner)
		results = trimResults(results, r.URL.Query().Get("limit"))
		repository.ReplaceScores(userID, results)
	} else {
		services.SortByScore(results)
		results = trimResults(results, r.URL.Query().Get("limit"))
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":       userID,
		"match_count":   len(results),
		"llm_available": llmAvailable,
		"using_llm":     llmActive,
		"from_cache":    fromCache,
		"results":       results,
	})
}

// MatchInsightsHandler godoc
// @Summary Generate coaching insights from the user's saved colleges
// @Description Produces up to three insights from the user's preference profile and saved college list. Results are cached per user; pass refresh=true to regenerate.
// @Tags matching
// @Accept json
// @Produce json
// @Param user_id query string true "User ID"
// @Param refresh query boolean false "Bypass the cache and regenerate"
// @Success 200 {object} map[string]interface{} "Insight list in display order"
// @Failure 400 {object} map[string]interface{} "Missing user_id"
// @Failure 404 {object} map[string]interface{} "No preference profile"
// @Router /match-insights/ [get]
func MatchInsightsHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		utils.WriteDetail(w, http.StatusBadRequest, "Query parameter 'user_id' is required.")
		return
	}

	pref, err := repository.GetUserPreference(userID)
	if err != nil {
		utils.WriteDetail(w, http.StatusInternalServerError, "Failed to load user preferences.")
		return
	}
	if pref == nil {
		utils.WriteDetail(w, http.StatusNotFound, "No preference profile found for this user.")
		return
	}

	saved, err := repository.ListSavedColleges(userID)
	if err != nil {
		utils.WriteDetail(w, http.StatusInternalServerError, "Failed to load saved colleges.")
		return
	}

	refresh := utils.ParseBoolFlag(r.URL.Query().Get("refresh"))

	var insights []models.Insight
	fromCache := false

	if !refresh {
		cached, err := repository.GetCachedInsights(userID)
		if err != nil {
			logger.Warn("Reading cached insights failed", "user_id", userID, "error", err)
		} else if len(cached) > 0 {
			fromCache = true
			insights = cached
		}
	}

	if len(insights) == 0 {
		if len(saved) > 0 {
			var gen services.Inferencer
			if hf := services.NewHFClient(cfg); hf != nil {
				gen = hf
			}
			insights = services.GenerateInsights(gen, *pref, saved)
		}
		if len(insights) == 0 {
			insights = []models.Insight{services.DefaultInsight()}
		}
		repository.ReplaceInsights(userID, insights)
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    userID,
		"count":      len(insights),
		"from_cache": fromCache,
		"results":    insights,
	})
}

// HealthHandler godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is up"
// @Router /health/ [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// trimResults applies the optional limit query parameter. An absent or
// invalid value leaves the slice untouched.
func trimResults(results []models.MatchResult, limitParam string) []models.MatchResult {
	limit := utils.ParseLimit(limitParam, len(results))
	if limit < len(results) {
		return results[:limit]
	}
	return results
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/match-scores/", func(w http.ResponseWriter, req *http.Request) {
		MatchScoresHandler(w, req, cfg)
	})

	r.Get("/match-insights/", func(w http.ResponseWriter, req *http.Request) {
		MatchInsightsHandler(w, req, cfg)
	})

	r.Get("/health/", HealthHandler)
}
