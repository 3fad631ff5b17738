package server

import (
	"github.com/spektr-org/inkdash/artifact"
	"github.com/spektr-org/inkdash/dashboard"
	"github.com/spektr-org/inkdash/inmates"
	"github.com/spektr-org/inkdash/selection"
	"github.com/spektr-org/inkdash/textmine"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidSelection = "INVALID_SELECTION"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the machine-readable error code.
	Code string `json:"code,omitempty"`
}

// HealthResponse reports liveness and the loaded row counts.
type HealthResponse struct {
	Status   string         `json:"status"`
	Version  uint64         `json:"selectionVersion"`
	RowCount map[string]int `json:"rowCount"`
}

// SelectionResponse wraps the active selection.
type SelectionResponse struct {
	Selection selection.State `json:"selection"`
}

// SelectionUpdateResponse is returned after a selection change.
type SelectionUpdateResponse struct {
	Selection selection.State      `json:"selection"`
	Dashboard *dashboard.Dashboard `json:"dashboard"`
}

// WordsQuery selects a word-frequency table.
type WordsQuery struct {
	Location string `form:"location"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=3000"`
}

// WordsResponse is a word-frequency table.
type WordsResponse struct {
	Location string               `json:"location,omitempty"`
	Words    []textmine.WordCount `json:"words"`
}

// TopicsResponse lists the precomputed topics.
type TopicsResponse struct {
	Topics []inmates.Topic `json:"topics"`
}

// ArtifactsResponse lists the artifacts a store holds.
type ArtifactsResponse struct {
	Artifacts []artifact.Info `json:"artifacts"`
}
