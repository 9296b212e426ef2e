// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"

	"github.com/latticesearch/lattice/pkg/types"
)

// MaxQueryLength bounds accepted query strings.
const MaxQueryLength = 1024

// ErrQueryTooLong is returned when a query exceeds MaxQueryLength.
var ErrQueryTooLong = errors.New("query exceeds maximum length")

// SearchRequest is the body of POST /search and POST /search/auto.
type SearchRequest struct {
	Query          string         `json:"query" binding:"required"`
	Weights        *types.Weights `json:"weights,omitempty"`
	Filter         *types.Filter  `json:"filter,omitempty"`
	Limit          int            `json:"limit,omitempty"`
	SingleStrategy bool           `json:"single_strategy,omitempty"`
}

// Validate performs validation on SearchRequest.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if r.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// BooleanRequest is the body of POST /search/boolean.
type BooleanRequest struct {
	Query string `json:"query" binding:"required"`
}

// Validate performs validation on BooleanRequest.
func (r *BooleanRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// FuzzyRequest is the body of POST /search/fuzzy.
type FuzzyRequest struct {
	Query     string  `json:"query" binding:"required"`
	Threshold float64 `json:"threshold,omitempty"`
}

// Validate performs validation on FuzzyRequest.
func (r *FuzzyRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if r.Threshold < 0 || r.Threshold > 1 {
		return errors.New("threshold must be between 0 and 1")
	}
	return nil
}

// EstimateRequest is the body of POST /estimate.
type EstimateRequest struct {
	Query string `json:"query" binding:"required"`
}

// Validate performs validation on EstimateRequest.
func (r *EstimateRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// FuzzyMatch is one fuzzy search hit.
type FuzzyMatch struct {
	Entity     *types.Entity `json:"entity"`
	Matched    string        `json:"matched"`
	Similarity float64       `json:"similarity"`
}

// BooleanResponse is the body returned by POST /search/boolean.
type BooleanResponse struct {
	Query    string          `json:"query"`
	Entities []*types.Entity `json:"entities"`
	Count    int             `json:"count"`
}

// FuzzyResponse is the body returned by POST /search/fuzzy.
type FuzzyResponse struct {
	Query   string       `json:"query"`
	Matches []FuzzyMatch `json:"matches"`
	Count   int          `json:"count"`
}

// ErrorResponse is the body returned on any error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
