package adverts

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// similarAdvertsLimit caps how many recommendations one lookup returns.
const similarAdvertsLimit = 4

// SimilarAdverts recommends up to four other available adverts from the
// reference's category, ranked by specification similarity:
//
//  1. candidates whose specification set equals the reference's, in id order;
//  2. then candidates ranked by the size of the specification overlap,
//     largest first, ties keeping id order. Zero-overlap candidates rank
//     last and still fill the cap, so any available advert in the category
//     can surface when closer matches run out.
//
// The reference itself and unavailable adverts are never returned.
func (s *service) SimilarAdverts(ctx context.Context, advertID uuid.UUID, viewer *uuid.UUID) ([]AdvertDTO, error) {
	reference, err := s.adverts.FindByID(ctx, advertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "advert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load advert")
	}

	candidates, err := s.adverts.FindAvailableByCategory(ctx, reference.Category, reference.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load candidates")
	}

	selected := rankCandidates(reference, candidates)
	return s.enrich.enrich(ctx, selected, viewer)
}

func rankCandidates(reference *models.Advert, candidates []models.Advert) []models.Advert {
	refSet := specSet(reference.Specifications)

	selected := make([]models.Advert, 0, similarAdvertsLimit)
	taken := map[uuid.UUID]bool{}

	// Exact-match pass.
	for _, candidate := range candidates {
		if len(selected) == similarAdvertsLimit {
			break
		}
		if setsEqual(refSet, specSet(candidate.Specifications)) {
			selected = append(selected, candidate)
			taken[candidate.ID] = true
		}
	}

	// Overlap-ranked fallback over what remains. Zero-overlap candidates
	// stay in the running so the cap fills whenever the category has stock.
	if len(selected) < similarAdvertsLimit {
		type scored struct {
			advert  models.Advert
			overlap int
		}
		remaining := make([]scored, 0, len(candidates))
		for _, candidate := range candidates {
			if taken[candidate.ID] {
				continue
			}
			overlap := intersectionSize(refSet, specSet(candidate.Specifications))
			remaining = append(remaining, scored{advert: candidate, overlap: overlap})
		}
		sort.SliceStable(remaining, func(i, j int) bool {
			return remaining[i].overlap > remaining[j].overlap
		})
		for _, entry := range remaining {
			if len(selected) == similarAdvertsLimit {
				break
			}
			selected = append(selected, entry.advert)
			taken[entry.advert.ID] = true
		}
	}

	return selected
}

type specPair struct {
	key   string
	value string
}

// specSet collapses specification rows into a set; duplicate rows are
// tolerated in storage and must not skew similarity counts.
func specSet(specs []models.Specification) map[specPair]bool {
	set := make(map[specPair]bool, len(specs))
	for _, spec := range specs {
		set[specPair{key: spec.Key, value: spec.Value}] = true
	}
	return set
}

func setsEqual(a, b map[specPair]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for pair := range a {
		if !b[pair] {
			return false
		}
	}
	return true
}

func intersectionSize(a, b map[specPair]bool) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for pair := range a {
		if b[pair] {
			count++
		}
	}
	return count
}
