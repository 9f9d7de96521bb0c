package db

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"college_pathfinder/models"
)

func TestSelectQueryBuildsRequest(t *testing.T) {
	var gotPath, gotSelect, gotOrder, gotFilter, gotKey, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSelect = r.URL.Query().Get("select")
		gotOrder = r.URL.Query().Get("order")
		gotFilter = r.URL.Query().Get("user_id")
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"id": 1, "title": "First"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	rows, err := client.SelectQuery("match_insights", "id,title", models.Row{"user_id": "u1"}, "sort_order.asc")
	if err != nil {
		t.Fatalf("SelectQuery failed: %v", err)
	}

	if gotPath != "/rest/v1/match_insights" {
		t.Errorf("path = %q", gotPath)
	}
	if gotSelect != "id,title" {
		t.Errorf("select = %q", gotSelect)
	}
	if gotOrder != "sort_order.asc" {
		t.Errorf("order = %q", gotOrder)
	}
	if gotFilter != "eq.u1" {
		t.Errorf("user_id filter = %q, want eq.u1", gotFilter)
	}
	if gotKey != "secret" || gotAuth != "Bearer secret" {
		t.Errorf("auth headers = %q / %q", gotKey, gotAuth)
	}
	if len(rows) != 1 || models.AsString(rows[0]["title"]) != "First" {
		t.Errorf("rows = %v", rows)
	}
}

func TestSelectInBuildsFilter(t *testing.T) {
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("college_id")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	if _, err := client.SelectIn("programs", "college_id", []string{"1", "2", "3"}); err != nil {
		t.Fatalf("SelectIn failed: %v", err)
	}
	if gotFilter != "in.(1,2,3)" {
		t.Errorf("college_id filter = %q, want in.(1,2,3)", gotFilter)
	}
}

func TestSelectInEmptySetSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request for empty value set")
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	rows, err := client.SelectIn("programs", "college_id", nil)
	if err != nil {
		t.Fatalf("SelectIn failed: %v", err)
	}
	if rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
}

func TestNumRowsParsesContentRange(t *testing.T) {
	var gotMethod, gotPrefer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPrefer = r.Header.Get("Prefer")
		w.Header().Set("Content-Range", "0-24/3573")
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	count, err := client.NumRows("colleges", nil)
	if err != nil {
		t.Fatalf("NumRows failed: %v", err)
	}
	if count != 3573 {
		t.Errorf("count = %d, want 3573", count)
	}
	if gotMethod != http.MethodHead {
		t.Errorf("method = %q, want HEAD", gotMethod)
	}
	if gotPrefer != "count=exact" {
		t.Errorf("Prefer = %q, want count=exact", gotPrefer)
	}
}

func TestUpsertSetsConflictTarget(t *testing.T) {
	var gotConflict, gotPrefer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConflict = r.URL.Query().Get("on_conflict")
		gotPrefer = r.Header.Get("Prefer")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	rows := []models.Row{{"user_id": "u1", "college_id": 3, "score": 77.7}}
	if _, err := client.Upsert("match_recommendations", rows, "user_id,college_id"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if gotConflict != "user_id,college_id" {
		t.Errorf("on_conflict = %q", gotConflict)
	}
	if gotPrefer != "resolution=merge-duplicates,return=representation" {
		t.Errorf("Prefer = %q", gotPrefer)
	}
}

func TestErrorStatusSurfacesBodyPreview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Invalid API key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong")
	_, err := client.Select("colleges")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error = %v", err)
	}
}

func TestGetColumnValueRequiresMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	if _, err := client.GetColumnValue("colleges", "name", models.Row{"id": 99}); err == nil {
		t.Fatal("expected error when no row matches")
	}
}

func TestGetTableColumnsSortsNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "A", "id": 1, "ranking": 5}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	columns, err := client.GetTableColumns("colleges")
	if err != nil {
		t.Fatalf("GetTableColumns failed: %v", err)
	}
	want := []string{"id", "name", "ranking"}
	if len(columns) != len(want) {
		t.Fatalf("columns = %v, want %v", columns, want)
	}
	for i := range want {
		if columns[i] != want[i] {
			t.Fatalf("columns = %v, want %v", columns, want)
		}
	}
}
