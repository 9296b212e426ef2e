package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticesearch/lattice"
	"github.com/latticesearch/lattice/pkg/query"
	"github.com/latticesearch/lattice/pkg/server/dto"
)

// Engine is the search surface the handlers need.
type Engine interface {
	lattice.Searcher
	lattice.Advisor
}

// SearchHandler handles search requests
type SearchHandler struct {
	engine Engine
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(engine Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search handles POST /search
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	results, err := h.engine.Search(c.Request.Context(), req.Query, searchOptions(&req))
	if err != nil {
		writeSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SearchAuto handles POST /search/auto
func (h *SearchHandler) SearchAuto(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	results, err := h.engine.SearchAuto(c.Request.Context(), req.Query, searchOptions(&req))
	if err != nil {
		writeSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SearchBoolean handles POST /search/boolean
func (h *SearchHandler) SearchBoolean(c *gin.Context) {
	var req dto.BooleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	entities, err := h.engine.SearchBoolean(c.Request.Context(), req.Query)
	if err != nil {
		writeSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BooleanResponse{
		Query:    req.Query,
		Entities: entities,
		Count:    len(entities),
	})
}

// SearchFuzzy handles POST /search/fuzzy
func (h *SearchHandler) SearchFuzzy(c *gin.Context) {
	var req dto.FuzzyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	matches, err := h.engine.SearchFuzzy(c.Request.Context(), req.Query, req.Threshold)
	if err != nil {
		writeSearchError(c, err)
		return
	}

	out := make([]dto.FuzzyMatch, len(matches))
	for i, m := range matches {
		out[i] = dto.FuzzyMatch{Entity: m.Entity, Matched: m.Matched, Similarity: m.Similarity}
	}
	c.JSON(http.StatusOK, dto.FuzzyResponse{
		Query:   req.Query,
		Matches: out,
		Count:   len(out),
	})
}

// Estimate handles POST /estimate
func (h *SearchHandler) Estimate(c *gin.Context) {
	var req dto.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	report, err := h.engine.EstimateCost(c.Request.Context(), req.Query)
	if err != nil {
		writeSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func searchOptions(req *dto.SearchRequest) *lattice.SearchOptions {
	return &lattice.SearchOptions{
		Weights:        req.Weights,
		Filter:         req.Filter,
		Limit:          req.Limit,
		SingleStrategy: req.SingleStrategy,
	}
}

// writeSearchError maps engine errors to status codes. Malformed queries are
// the caller's fault; everything else is a server failure.
func writeSearchError(c *gin.Context, err error) {
	if query.IsSyntaxError(err) {
		writeError(c, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, "search_failed", err.Error())
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{Error: code, Message: message})
}
