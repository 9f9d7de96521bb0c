package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"college_pathfinder/config"
	"college_pathfinder/models"
)

// Client talks to the Supabase PostgREST endpoint. It owns no business
// logic beyond condition chaining and projection; rows cross the boundary
// as generic maps and are converted to typed records by the repositories.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

// Store is the shared gateway instance, set by Init.
var Store *Client

// Init creates the shared client from configuration.
func Init(cfg *config.Config) error {
	if cfg.Supabase.URL == "" || cfg.Supabase.Key == "" {
		return fmt.Errorf("supabase url and key must be configured")
	}
	Store = NewClient(cfg.Supabase.URL, cfg.Supabase.Key)
	return nil
}

// NewClient builds a gateway client for the given project URL and API key.
func NewClient(baseURL, key string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) endpoint(table string) string {
	return c.baseURL + "/rest/v1/" + url.PathEscape(table)
}

func (c *Client) newRequest(method, rawURL string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview := string(data)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		return nil, resp, fmt.Errorf("row store request failed: %d - %s", resp.StatusCode, preview)
	}
	return data, resp, nil
}

// condValue renders a condition value as a PostgREST filter operand.
func condValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func applyConditions(q url.Values, conditions models.Row) {
	for col, v := range conditions {
		q.Set(col, "eq."+condValue(v))
	}
}

func decodeRows(data []byte) ([]models.Row, error) {
	var rows []models.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode row store response: %w", err)
	}
	return rows, nil
}

// Select returns every row of a table.
func (c *Client) Select(table string) ([]models.Row, error) {
	return c.SelectQuery(table, "*", nil, "")
}

// SelectWhere returns rows matching the equality conditions.
func (c *Client) SelectWhere(table string, conditions models.Row) ([]models.Row, error) {
	return c.SelectQuery(table, "*", conditions, "")
}

// SelectQuery is the projected form: selectExpr may include embedded
// resources (e.g. "id,score,colleges:college_id(name,ranking)") and order
// an "column.asc"/"column.desc" clause. Conditions are chained as equality
// filters.
func (c *Client) SelectQuery(table, selectExpr string, conditions models.Row, order string) ([]models.Row, error) {
	q := url.Values{}
	if selectExpr == "" {
		selectExpr = "*"
	}
	q.Set("select", selectExpr)
	applyConditions(q, conditions)
	if order != "" {
		q.Set("order", order)
	}

	req, err := c.newRequest(http.MethodGet, c.endpoint(table)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	data, _, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

// SelectIn returns rows whose column value is in the given set.
func (c *Client) SelectIn(table, column string, values []string) ([]models.Row, error) {
	if len(values) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set(column, "in.("+strings.Join(values, ",")+")")

	req, err := c.newRequest(http.MethodGet, c.endpoint(table)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	data, _, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

// NumRows counts rows matching the conditions without fetching them.
func (c *Client) NumRows(table string, conditions models.Row) (int, error) {
	q := url.Values{}
	q.Set("select", "*")
	applyConditions(q, conditions)

	req, err := c.newRequest(http.MethodHead, c.endpoint(table)+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	_, resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	// Content-Range looks like "0-24/3573"; the total follows the slash.
	contentRange := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0, fmt.Errorf("row store count response missing Content-Range")
	}
	total, err := strconv.Atoi(contentRange[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("parse row count %q: %w", contentRange, err)
	}
	return total, nil
}

// Insert writes one or more rows and returns the stored representation.
func (c *Client) Insert(table string, rows any) ([]models.Row, error) {
	body, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(http.MethodPost, c.endpoint(table), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	data, _, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

// Update patches rows matching the conditions.
func (c *Client) Update(table string, row models.Row, conditions models.Row) ([]models.Row, error) {
	body, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	applyConditions(q, conditions)

	req, err := c.newRequest(http.MethodPatch, c.endpoint(table)+"?"+q.Encode(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")

	data, _, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

// Delete removes rows matching the conditions.
func (c *Client) Delete(table string, conditions models.Row) error {
	q := url.Values{}
	applyConditions(q, conditions)

	req, err := c.newRequest(http.MethodDelete, c.endpoint(table)+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	_, _, err = c.do(req)
	return err
}

// Upsert inserts rows, merging on the given conflict target.
func (c *Client) Upsert(table string, rows any, onConflict string) ([]models.Row, error) {
	body, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	rawURL := c.endpoint(table)
	if onConflict != "" {
		q := url.Values{}
		q.Set("on_conflict", onConflict)
		rawURL += "?" + q.Encode()
	}

	req, err := c.newRequest(http.MethodPost, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=representation")

	data, _, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

// CheckValueExists reports whether any row has the given column value.
func (c *Client) CheckValueExists(table, column string, value any) (bool, error) {
	n, err := c.NumRows(table, models.Row{column: value})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetColumnValue returns the column value of the first row matching the
// conditions.
func (c *Client) GetColumnValue(table, column string, conditions models.Row) (any, error) {
	rows, err := c.SelectQuery(table, column, conditions, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no row in %s matches the given conditions", table)
	}
	return rows[0][column], nil
}

// GetTableColumns lists the column names of a table, taken from a sample
// row. Empty tables cannot be introspected this way.
func (c *Client) GetTableColumns(table string) ([]string, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("limit", "1")

	req, err := c.newRequest(http.MethodGet, c.endpoint(table)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	data, _, err := c.do(req)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %s has no rows to introspect", table)
	}
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns, nil
}

// ProgramsForUser returns the program rows belonging to colleges the user
// has saved.
func (c *Client) ProgramsForUser(userID string) ([]models.Row, error) {
	saved, err := c.SelectQuery("saved_colleges", "college_id", models.Row{"user_id": userID}, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(saved))
	for _, row := range saved {
		if id := models.AsInt(row["college_id"]); id != nil {
			ids = append(ids, strconv.Itoa(*id))
		}
	}
	return c.SelectIn("programs", "college_id", ids)
}
