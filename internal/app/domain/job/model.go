package job

import (
	"encoding/json"
	"time"
)

// Kind identifies the worker routine that executes a job.
type Kind string

const (
	KindCatalogImport  Kind = "catalog_import"
	KindOutfitGenerate Kind = "outfit_generate"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is a persisted background task. Payload and Result are kind-specific
// JSON documents.
type Job struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Status      Status          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
}

// ImportPayload parameterises a catalog import job. Either Query or URLs is
// set.
type ImportPayload struct {
	Query  string   `json:"query,omitempty"`
	URLs   []string `json:"urls,omitempty"`
	Domain string   `json:"domain,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// ImportResult summarises an executed import.
type ImportResult struct {
	Requested int     `json:"requested"`
	Imported  int     `json:"imported"`
	Updated   int     `json:"updated"`
	Failed    int     `json:"failed"`
	ItemIDs   []int64 `json:"item_ids,omitempty"`
}

// GeneratePayload parameterises an outfit generation job. When ItemIDs is
// set the job builds around those items, otherwise it picks from the whole
// catalog.
type GeneratePayload struct {
	UserID        int64    `json:"user_id"`
	Occasion      string   `json:"occasion,omitempty"`
	Style         string   `json:"style,omitempty"`
	Count         int      `json:"count,omitempty"`
	Budget        *float64 `json:"budget,omitempty"`
	Collection    string   `json:"collection,omitempty"`
	ItemIDs       []int64  `json:"item_ids,omitempty"`
	AddCategories []string `json:"additional_categories,omitempty"`
}

// GenerateResult lists the outfits produced by a generation job. Scores are
// 0..100, parallel to OutfitIDs.
type GenerateResult struct {
	OutfitIDs []int64 `json:"outfit_ids"`
	Scores    []int   `json:"scores,omitempty"`
}
