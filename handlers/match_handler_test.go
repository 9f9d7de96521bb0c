package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"college_pathfinder/config"
	"college_pathfinder/db"
)

// storeStub serves canned PostgREST responses keyed by table path and
// records the write traffic the handlers produce.
type storeStub struct {
	t         *testing.T
	responses map[string]string
	writes    []string
}

func (s *storeStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			s.writes = append(s.writes, "DELETE "+r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodPost:
			s.writes = append(s.writes, "POST "+r.URL.Path)
			w.Write([]byte(`[]`))
			return
		}
		body, ok := s.responses[r.URL.Path]
		if !ok {
			s.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(body))
	}
}

func newStoreStub(t *testing.T, responses map[string]string) (*storeStub, func()) {
	stub := &storeStub{t: t, responses: responses}
	server := httptest.NewServer(stub.handler())
	db.Store = db.NewClient(server.URL, "test-key")
	return stub, server.Close
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response body: %v (%s)", err, rec.Body.String())
	}
	return payload
}

func TestMatchScoresRequiresUserID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-scores/", nil)

	MatchScoresHandler(rec, req, &config.Config{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["detail"] != "Query parameter 'user_id' is required." {
		t.Errorf("detail = %q", payload["detail"])
	}
}

func TestMatchScoresMissingPreference(t *testing.T) {
	_, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-scores/?user_id=ghost", nil)

	MatchScoresHandler(rec, req, &config.Config{})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["detail"] != "No preference profile found for this user." {
		t.Errorf("detail = %q", payload["detail"])
	}
}

func TestMatchScoresNoColleges(t *testing.T) {
	_, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1", "budget": 50000}]`,
		"/rest/v1/colleges":         `[]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-scores/?user_id=u1", nil)

	MatchScoresHandler(rec, req, &config.Config{})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["detail"] != "No colleges available to score." {
		t.Errorf("detail = %q", payload["detail"])
	}
}

func TestMatchScoresComputesAndCaches(t *testing.T) {
	stub, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1", "budget": 50000, "gpa": 3.5}]`,
		"/rest/v1/colleges": `[
			{"id": 1, "name": "Costly", "average_cost": 100000, "acceptance_rate": 0.40, "ranking": 2},
			{"id": 2, "name": "Affordable", "average_cost": 25000, "acceptance_rate": 0.40, "ranking": 8}
		]`,
		"/rest/v1/match_recommendations": `[]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-scores/?user_id=u1", nil)

	MatchScoresHandler(rec, req, &config.Config{})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)

	if payload["from_cache"] != false {
		t.Errorf("from_cache = %v, want false", payload["from_cache"])
	}
	if payload["llm_available"] != false || payload["using_llm"] != false {
		t.Errorf("llm flags = %v / %v, want false", payload["llm_available"], payload["using_llm"])
	}
	if payload["match_count"] != float64(2) {
		t.Errorf("match_count = %v, want 2", payload["match_count"])
	}

	results, ok := payload["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results = %v", payload["results"])
	}
	first := results[0].(map[string]any)
	second := results[1].(map[string]any)
	if first["score"].(float64) < second["score"].(float64) {
		t.Errorf("results not sorted: %v then %v", first["score"], second["score"])
	}
	if first["college_name"] != "Affordable" {
		t.Errorf("best match = %v, want Affordable", first["college_name"])
	}

	wantWrites := []string{"DELETE /rest/v1/match_recommendations", "POST /rest/v1/match_recommendations"}
	if len(stub.writes) != 2 || stub.writes[0] != wantWrites[0] || stub.writes[1] != wantWrites[1] {
		t.Errorf("cache writes = %v, want %v", stub.writes, wantWrites)
	}
}

func TestMatchScoresServesFromCache(t *testing.T) {
	stub, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1", "budget": 50000}]`,
		"/rest/v1/colleges":         `[{"id": 1, "name": "Alpha", "average_cost": 30000}]`,
		"/rest/v1/match_recommendations": `[
			{"college_id": 1, "score": 66.6, "heuristic_score": 66.6, "notes": [],
			 "colleges": {"id": 1, "name": "Alpha", "average_cost": 30000}}
		]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-scores/?user_id=u1", nil)

	MatchScoresHandler(rec, req, &config.Config{})

	payload := decodeBody(t, rec)
	if payload["from_cache"] != true {
		t.Fatalf("from_cache = %v, want true", payload["from_cache"])
	}
	if len(stub.writes) != 0 {
		t.Errorf("cache hit should not rewrite the cache, writes = %v", stub.writes)
	}
}

func TestMatchScoresRefreshBypassesCache(t *testing.T) {
	stub, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1", "budget": 50000}]`,
		"/rest/v1/colleges":         `[{"id": 1, "name": "Alpha", "average_cost": 30000}]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-scores/?user_id=u1&refresh=true", nil)

	MatchScoresHandler(rec, req, &config.Config{})

	payload := decodeBody(t, rec)
	if payload["from_cache"] != false {
		t.Fatalf("from_cache = %v, want false on refresh", payload["from_cache"])
	}
	if len(stub.writes) != 2 {
		t.Errorf("refresh should rewrite the cache, writes = %v", stub.writes)
	}
}

func TestMatchScoresLimitTrimsResults(t *testing.T) {
	_, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1", "budget": 50000}]`,
		"/rest/v1/colleges": `[
			{"id": 1, "name": "A", "average_cost": 20000},
			{"id": 2, "name": "B", "average_cost": 40000},
			{"id": 3, "name": "C", "average_cost": 90000}
		]`,
		"/rest/v1/match_recommendations": `[]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-scores/?user_id=u1&limit=2", nil)

	MatchScoresHandler(rec, req, &config.Config{})

	payload := decodeBody(t, rec)
	if payload["match_count"] != float64(2) {
		t.Errorf("match_count = %v, want 2", payload["match_count"])
	}
}

func TestMatchInsightsDefaultWhenNothingSaved(t *testing.T) {
	stub, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1"}]`,
		"/rest/v1/saved_colleges":   `[]`,
		"/rest/v1/match_insights":   `[]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-insights/?user_id=u1", nil)

	MatchInsightsHandler(rec, req, &config.Config{})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	if payload["count"] != float64(1) {
		t.Fatalf("count = %v, want 1", payload["count"])
	}
	results := payload["results"].([]any)
	first := results[0].(map[string]any)
	if first["title"] != "Review Your Preferences" {
		t.Errorf("title = %v", first["title"])
	}
	if len(stub.writes) != 2 {
		t.Errorf("default insight should still be cached, writes = %v", stub.writes)
	}
}

func TestMatchInsightsRuleBasedGeneration(t *testing.T) {
	_, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1", "budget": 30000}]`,
		"/rest/v1/saved_colleges": `[
			{"college_id": 1, "match_score": 82.4,
			 "colleges": {"id": 1, "name": "Alpha College", "average_cost": 45000, "acceptance_rate": 40}}
		]`,
		"/rest/v1/match_insights": `[]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-insights/?user_id=u1", nil)

	MatchInsightsHandler(rec, req, &config.Config{})

	payload := decodeBody(t, rec)
	if payload["from_cache"] != false {
		t.Errorf("from_cache = %v, want false", payload["from_cache"])
	}
	if payload["count"] != float64(3) {
		t.Fatalf("count = %v, want 3 (%s)", payload["count"], rec.Body.String())
	}
	results := payload["results"].([]any)
	first := results[0].(map[string]any)
	if first["title"] != "Prioritize Your Best Fit" {
		t.Errorf("first title = %v", first["title"])
	}
}

func TestMatchInsightsServedFromCache(t *testing.T) {
	stub, closeStub := newStoreStub(t, map[string]string{
		"/rest/v1/user_preferences": `[{"user_id": "u1"}]`,
		"/rest/v1/saved_colleges":   `[]`,
		"/rest/v1/match_insights": `[
			{"sort_order": 0, "title": "Cached Insight", "insight": "From the cache.", "metadata": null}
		]`,
	})
	defer closeStub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/match-insights/?user_id=u1", nil)

	MatchInsightsHandler(rec, req, &config.Config{})

	payload := decodeBody(t, rec)
	if payload["from_cache"] != true {
		t.Fatalf("from_cache = %v, want true", payload["from_cache"])
	}
	results := payload["results"].([]any)
	first := results[0].(map[string]any)
	if first["title"] != "Cached Insight" || first["description"] != "From the cache." {
		t.Errorf("cached insight = %v", first)
	}
	if len(stub.writes) != 0 {
		t.Errorf("cache hit should not rewrite the cache, writes = %v", stub.writes)
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/", nil)

	HealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["status"] != "ok" {
		t.Errorf("status field = %v", payload["status"])
	}
}
