package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticesearch/lattice"
	"github.com/latticesearch/lattice/pkg/server/dto"
	"github.com/latticesearch/lattice/pkg/store"
	"github.com/latticesearch/lattice/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testEngine(t *testing.T) Engine {
	t.Helper()
	st := store.NewMemoryStore()
	ctx := context.Background()
	imp := func(v float64) *float64 { return &v }

	entities := []*types.Entity{
		{Name: "Alice", Type: "person", Tags: []string{"engineer"}, Importance: imp(8),
			Observations: []string{"works on database internals"}},
		{Name: "Bob", Type: "person", Tags: []string{"manager"}, Importance: imp(5),
			Observations: []string{"runs the platform team"}},
		{Name: "Acme", Type: "company", Tags: []string{"startup"},
			Observations: []string{"builds database tools"}},
	}
	for _, e := range entities {
		require.NoError(t, st.PutEntity(ctx, e))
	}

	engine, err := lattice.New(st, nil, lattice.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func postJSON(t *testing.T, handler gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestSearch(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.Search, dto.SearchRequest{Query: "database"})
	require.Equal(t, http.StatusOK, w.Code)

	var results types.SearchResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, "database", results.Query)
	assert.NotEmpty(t, results.Results)
}

func TestSearchWithFilter(t *testing.T) {
	h := NewSearchHandler(testEngine(t))
	minImp := 6.0

	w := postJSON(t, h.Search, dto.SearchRequest{
		Query:  "database",
		Filter: &types.Filter{MinImportance: &minImp},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var results types.SearchResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	for _, r := range results.Results {
		if r.Entity.Name == "Alice" {
			assert.Equal(t, 1.0, r.Scores.Symbolic)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.Search, dto.SearchRequest{Query: "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestSearchBoolean(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.SearchBoolean, dto.BooleanRequest{Query: "person AND NOT manager"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.BooleanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Alice", resp.Entities[0].Name)
}

func TestSearchBooleanSyntaxError(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.SearchBoolean, dto.BooleanRequest{Query: "person AND"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_query", resp.Error)
}

func TestSearchFuzzy(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.SearchFuzzy, dto.FuzzyRequest{Query: "databse", Threshold: 0.7})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.FuzzyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Matches)
	for _, m := range resp.Matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.7)
	}
}

func TestSearchFuzzyBadThreshold(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.SearchFuzzy, dto.FuzzyRequest{Query: "databse", Threshold: 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchAuto(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.SearchAuto, dto.SearchRequest{Query: "database"})
	require.Equal(t, http.StatusOK, w.Code)

	var results types.SearchResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.NotNil(t, results.Adequacy)
	require.NotNil(t, results.Cost)
}

func TestEstimate(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := postJSON(t, h.Estimate, dto.EstimateRequest{Query: "type:person AND engineer"})
	require.Equal(t, http.StatusOK, w.Code)

	var report types.CostReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, types.StrategyBoolean, report.Recommended)
	assert.Equal(t, 3, report.GraphSize)
	assert.NotEmpty(t, report.Estimates)
}

func TestSearchMalformedBody(t *testing.T) {
	h := NewSearchHandler(testEngine(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
