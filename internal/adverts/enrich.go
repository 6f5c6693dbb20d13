package adverts

import (
	"context"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

type ownerLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

type ratingLoader interface {
	AverageRatingByOwner(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]float64, error)
}

type favoriteLoader interface {
	FavoritedSet(ctx context.Context, userID uuid.UUID, advertIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// enricher decorates advert rows with owner profiles, owner ratings, and
// the viewer's favorite flags. All lookups are batched per request.
type enricher struct {
	owners    ownerLoader
	ratings   ratingLoader
	favorites favoriteLoader
}

// enrich converts the rows to DTOs in order. Viewer may be nil, in which
// case is_favorited stays false everywhere.
func (e *enricher) enrich(ctx context.Context, rows []models.Advert, viewer *uuid.UUID) ([]AdvertDTO, error) {
	if len(rows) == 0 {
		return []AdvertDTO{}, nil
	}

	ownerIDs := make([]uuid.UUID, 0, len(rows))
	advertIDs := make([]uuid.UUID, 0, len(rows))
	seenOwners := map[uuid.UUID]bool{}
	for _, row := range rows {
		advertIDs = append(advertIDs, row.ID)
		if !seenOwners[row.UserID] {
			seenOwners[row.UserID] = true
			ownerIDs = append(ownerIDs, row.UserID)
		}
	}

	owners, err := e.owners.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owners")
	}
	ownersByID := make(map[uuid.UUID]*models.User, len(owners))
	for i := range owners {
		ownersByID[owners[i].ID] = &owners[i]
	}

	ratings, err := e.ratings.AverageRatingByOwner(ctx, ownerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}

	favorited := map[uuid.UUID]bool{}
	if viewer != nil && e.favorites != nil {
		favorited, err = e.favorites.FavoritedSet(ctx, *viewer, advertIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorites")
		}
	}

	dtos := make([]AdvertDTO, 0, len(rows))
	for i := range rows {
		dto := fromModel(&rows[i])
		dto.Owner = ownerSummaryFromModel(ownersByID[rows[i].UserID])
		dto.OwnerRating = ratings[rows[i].UserID]
		dto.IsFavorited = favorited[rows[i].ID]
		dtos = append(dtos, dto)
	}
	return dtos, nil
}
