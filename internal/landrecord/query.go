package landrecord

import (
	"net/url"
	"strings"

	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/codec"
)

// Comparison tells the land service how to compare price and area filters.
type Comparison string

const (
	CompareGreater Comparison = "greater"
	CompareLess    Comparison = "less"
	CompareEqual   Comparison = "equal"
)

// Query filters the verification queue.
type Query struct {
	StateID    string
	DistrictID string
	Price      string
	Area       string
	Comparison Comparison
}

// Validate rejects non-numeric thresholds and unknown comparison modes.
func (q Query) Validate() error {
	for name, v := range map[string]string{"price": q.Price, "area": q.Area} {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, err := codec.ParseFloat(name, v); err != nil {
			return apperr.Invalid(name, "must be a number")
		}
	}
	switch q.Comparison {
	case "", CompareGreater, CompareLess, CompareEqual:
	default:
		return apperr.Invalid("comparison", "must be greater, less or equal")
	}
	if q.Comparison != "" && q.Price == "" && q.Area == "" {
		return apperr.Invalid("comparison", "needs a price or area")
	}
	return nil
}

// Values encodes the non-empty filters as query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(k, val)
		}
	}
	set("state", q.StateID)
	set("district", q.DistrictID)
	set("price", q.Price)
	set("area", q.Area)
	set("comparison", string(q.Comparison))
	return v
}
