package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/internal/adverts"
	"github.com/adee-tech/adee-backend/pkg/db"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// uniqueConstraint is the index enforcing one favorite per user/advert pair.
const uniqueConstraint = "favorites_user_advert_key"

// Service exposes bookmark management.
type Service interface {
	Add(ctx context.Context, userID, advertID uuid.UUID) error
	Remove(ctx context.Context, userID, advertID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]adverts.AdvertDTO, error)
}

type favoriteRepository interface {
	Create(ctx context.Context, userID, advertID uuid.UUID) (*models.Favorite, error)
	Delete(ctx context.Context, userID, advertID uuid.UUID) (bool, error)
	AdvertIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type advertReader interface {
	GetByID(ctx context.Context, advertID uuid.UUID, viewer *uuid.UUID) (*adverts.AdvertDTO, error)
	GetByIDs(ctx context.Context, advertIDs []uuid.UUID, viewer *uuid.UUID) ([]adverts.AdvertDTO, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	FavoriteRepo favoriteRepository
	Adverts      advertReader
}

type service struct {
	favorites favoriteRepository
	adverts   advertReader
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.FavoriteRepo == nil {
		return nil, fmt.Errorf("favorite repository is required")
	}
	if params.Adverts == nil {
		return nil, fmt.Errorf("advert reader is required")
	}
	return &service{
		favorites: params.FavoriteRepo,
		adverts:   params.Adverts,
	}, nil
}

// Add bookmarks the advert for the user. Favoriting twice is a conflict.
func (s *service) Add(ctx context.Context, userID, advertID uuid.UUID) error {
	if userID == uuid.Nil || advertID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and advert id are required")
	}
	if _, err := s.adverts.GetByID(ctx, advertID, nil); err != nil {
		return err
	}

	if _, err := s.favorites.Create(ctx, userID, advertID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || db.IsUniqueViolation(err, uniqueConstraint) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "advert already favorited")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create favorite")
	}
	return nil
}

// Remove drops the bookmark. Removing an absent favorite is not found.
func (s *service) Remove(ctx context.Context, userID, advertID uuid.UUID) error {
	removed, err := s.favorites.Delete(ctx, userID, advertID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete favorite")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "favorite not found")
	}
	return nil
}

// List returns the user's bookmarked adverts, enriched like any other
// advert view, in one batch load. Bookmarks whose advert has since been
// deleted are silently absent.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]adverts.AdvertDTO, error) {
	ids, err := s.favorites.AdvertIDsForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	return s.adverts.GetByIDs(ctx, ids, &userID)
}
