// Package landcode derives land-code prefixes and shapes batch allocation
// requests. Numbering and uniqueness belong to the land service.
package landcode

import (
	"context"
	"log"
	"strings"

	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/geo"
)

// MaxBatch is the largest number of codes one request may allocate.
const MaxBatch = 1000

// Batch is one "generate" action. It is not persisted locally.
type Batch struct {
	Prefix     string `json:"prefix"`
	Count      int    `json:"count"`
	StateID    string `json:"state_id"`
	DistrictID string `json:"district_id"`
	TownID     string `json:"town_id"`
}

// Validate rejects a batch before any network call is made.
func (b Batch) Validate() error {
	switch {
	case strings.TrimSpace(b.StateID) == "":
		return apperr.Invalid("state_id", "state is required")
	case strings.TrimSpace(b.DistrictID) == "":
		return apperr.Invalid("district_id", "district is required")
	case strings.TrimSpace(b.TownID) == "":
		return apperr.Invalid("town_id", "town is required")
	case strings.TrimSpace(b.Prefix) == "":
		return apperr.Invalid("prefix", "prefix is required")
	case b.Count <= 0:
		return apperr.Invalid("count", "count must be a positive number")
	case b.Count > MaxBatch:
		return apperr.Invalid("count", "count must not exceed 1000")
	}
	return nil
}

// LandCode is one allotted code row owned by the land service.
type LandCode struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Status     string `json:"status"`
	StateID    string `json:"state_id,omitempty"`
	DistrictID string `json:"district_id,omitempty"`
	TownID     string `json:"town_id,omitempty"`
}

// Filter scopes a land-code listing. Empty fields are not sent.
type Filter struct {
	StateID    string
	DistrictID string
	TownID     string
}

// StatusCount is one bucket of the land-code statistics.
type StatusCount struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Stats struct {
	Total int           `json:"total"`
	Stats []StatusCount `json:"stats"`
}

// GenerateResult is the land service's answer to a generate request.
type GenerateResult struct {
	Message string     `json:"message,omitempty"`
	Codes   []LandCode `json:"data,omitempty"`
}

// Service is the part of the land service the allocator talks to.
type Service interface {
	GenerateLandCodes(ctx context.Context, b Batch) (*GenerateResult, error)
	ListLandCodes(ctx context.Context, f Filter) ([]LandCode, error)
	LandCodeStats(ctx context.Context) (*Stats, error)
}

// Allocator validates and forwards land-code batches.
type Allocator struct {
	svc Service
}

func NewAllocator(svc Service) *Allocator {
	return &Allocator{svc: svc}
}

// Generate validates the batch locally, then asks the land service to create
// the codes. Upstream failures are returned as-is; nothing is retried.
func (a *Allocator) Generate(ctx context.Context, b Batch) (*GenerateResult, error) {
	b.Prefix = strings.TrimSpace(b.Prefix)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	res, err := a.svc.GenerateLandCodes(ctx, b)
	if err != nil {
		log.Printf("[landcode] generate %s x%d failed: %v", b.Prefix, b.Count, err)
		return nil, err
	}
	log.Printf("[landcode] requested %d codes with prefix %s for town %s", b.Count, b.Prefix, b.TownID)
	return res, nil
}

func (a *Allocator) List(ctx context.Context, f Filter) ([]LandCode, error) {
	return a.svc.ListLandCodes(ctx, f)
}

func (a *Allocator) Stats(ctx context.Context) (*Stats, error) {
	return a.svc.LandCodeStats(ctx)
}

// DefaultBatch fills a batch from the current geo selection with the derived prefix.
func DefaultBatch(sel *geo.Selection, count int) Batch {
	state, district, town := sel.Names()
	return Batch{
		Prefix:     DerivePrefix(state, district, town),
		Count:      count,
		StateID:    sel.Selected(geo.LevelState),
		DistrictID: sel.Selected(geo.LevelDistrict),
		TownID:     sel.Selected(geo.LevelTown),
	}
}
