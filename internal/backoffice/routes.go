// Package backoffice exposes the verification and code allotment core over
// HTTP for the admin frontend.
package backoffice

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landledger/backoffice/internal/audit"
	"github.com/landledger/backoffice/internal/geo"
	"github.com/landledger/backoffice/internal/landcode"
	"github.com/landledger/backoffice/internal/landrecord"
	"github.com/landledger/backoffice/internal/middleware"
	"github.com/landledger/backoffice/internal/review"
)

// LandService is everything the back office needs from the land service.
type LandService interface {
	geo.Source
	landcode.Service
	review.Store
	ListLands(ctx context.Context, q landrecord.Query) ([]landrecord.Record, error)
	LandReport(ctx context.Context) ([]landrecord.Record, error)
}

// HistoryReader serves the local audit trail.
type HistoryReader interface {
	History(ctx context.Context, landID string, limit int) ([]audit.ReviewLog, error)
}

// Deps wires the handlers. Recorder and History are optional.
type Deps struct {
	Lands    LandService
	Recorder review.Recorder
	History  HistoryReader
}

func SetupRoutes(deps Deps) http.Handler {
	h := &Handlers{deps: deps, allocator: landcode.NewAllocator(deps.Lands)}

	r := chi.NewRouter()
	r.Use(middleware.BearerMiddleware)

	r.Route("/geo", func(r chi.Router) {
		r.Get("/states", h.ListStates)
		r.Get("/states/{id}/districts", h.ListDistricts)
		r.Get("/districts/{id}/{kind}", h.ListDistrictChildren)
		r.Get("/mandals/{id}/villages", h.ListMandalVillages)
		r.Get("/sectors/{id}/villages", h.ListSectorVillages)
	})

	r.Route("/land-codes", func(r chi.Router) {
		r.Get("/", h.ListLandCodes)
		r.Get("/prefix", h.GetPrefix)
		r.Get("/stats", h.GetLandCodeStats)
		r.Post("/generate", h.GenerateLandCodes)
	})

	r.Route("/lands", func(r chi.Router) {
		r.Get("/", h.ListLands)
		r.Get("/report", h.GetLandReport)
		r.Put("/{land_id}/review", h.SaveReview)
		r.Get("/{land_id}/reviews", h.GetReviewHistory)
		r.Delete("/{land_id}", h.DeleteLand)
	})

	return r
}
