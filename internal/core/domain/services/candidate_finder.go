package services

import (
	"cmp"
	"math"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vendor"
	"dispatch/internal/pkg/errs"
)

// Candidate is a vendor eligible for an offer together with its distance to the order.
type Candidate struct {
	Vendor     *vendor.Vendor
	DistanceKm float64
}

// CandidateFinder is a domain service that ranks vendors for an order location.
//
// Business rules:
//   - Only approved vendors are candidates
//   - A vendor is a candidate when its great-circle distance is at most maxRadiusKm
//   - Excluded vendors (already offered this order) are skipped
//   - Candidates are ordered by distance ascending, ties broken by vendor id ascending
//
// Example usage:
//
//	finder := services.NewCandidateFinder()
//	candidates, err := finder.Rank(o.Location(), 10, vendors, alreadyOffered)
//	if err != nil {
//	    return err
//	}
//	if len(candidates) == 0 {
//	    // nobody in range
//	}
type CandidateFinder struct{}

func NewCandidateFinder() CandidateFinder {
	return CandidateFinder{}
}

// Rank filters and orders vendors around origin. An empty result is not an error.
func (f CandidateFinder) Rank(
	origin kernel.Location,
	maxRadiusKm float64,
	vendors []*vendor.Vendor,
	exclude []kernel.UUID,
) ([]Candidate, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(maxRadiusKm) || maxRadiusKm <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("maxRadiusKm", maxRadiusKm, 0, math.Inf(1))
	}

	excluded := make(map[kernel.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	candidates := make([]Candidate, 0, len(vendors))
	for _, v := range vendors {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if !v.IsApproved() {
			continue
		}
		if _, skip := excluded[v.ID()]; skip {
			continue
		}

		distance, err := v.DistanceTo(origin)
		if err != nil {
			return nil, err
		}
		if distance > maxRadiusKm {
			continue
		}

		candidates = append(candidates, Candidate{Vendor: v, DistanceKm: distance})
	}

	slices.SortFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return a.Vendor.ID().Compare(b.Vendor.ID())
	})

	return candidates, nil
}
