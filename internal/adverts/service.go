package adverts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	"github.com/adee-tech/adee-backend/pkg/logger"
)

// Service exposes listing management plus the browse, search, and
// recommendation pipelines.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateAdvertRequest) (*AdvertDTO, error)
	Update(ctx context.Context, actorID uuid.UUID, advertID uuid.UUID, req UpdateAdvertRequest) (*AdvertDTO, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.Role, advertID uuid.UUID) error
	GetByID(ctx context.Context, advertID uuid.UUID, viewer *uuid.UUID) (*AdvertDTO, error)
	GetByIDs(ctx context.Context, advertIDs []uuid.UUID, viewer *uuid.UUID) ([]AdvertDTO, error)
	List(ctx context.Context, offset, limit int, viewer *uuid.UUID) ([]AdvertDTO, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, viewer *uuid.UUID) ([]AdvertDTO, error)
	Search(ctx context.Context, params SearchParams, viewer *uuid.UUID) ([]AdvertDTO, error)
	SimilarAdverts(ctx context.Context, advertID uuid.UUID, viewer *uuid.UUID) ([]AdvertDTO, error)
}

type advertRepository interface {
	Create(ctx context.Context, advert *models.Advert) (*models.Advert, error)
	CreateSpecifications(ctx context.Context, advertID uuid.UUID, specs []SpecificationInput) error
	ReplaceSpecifications(ctx context.Context, advertID uuid.UUID, specs []SpecificationInput) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Advert, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Advert, error)
	FindAvailableByCategory(ctx context.Context, category string, exclude uuid.UUID) ([]models.Advert, error)
	List(ctx context.Context, offset, limit int) ([]models.Advert, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Advert, error)
	Search(ctx context.Context, filter searchFilter) ([]models.Advert, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userGetter interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// ServiceParams groups dependencies for the adverts service.
type ServiceParams struct {
	AdvertRepo advertRepository
	UserRepo   userGetter
	Ratings    ratingLoader
	Favorites  favoriteLoader
	Logger     *logger.Logger
}

type service struct {
	adverts advertRepository
	users   userGetter
	enrich  *enricher
	logg    *logger.Logger
}

// NewService builds the adverts service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AdvertRepo == nil {
		return nil, fmt.Errorf("advert repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Ratings == nil {
		return nil, fmt.Errorf("rating loader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		adverts: params.AdvertRepo,
		users:   params.UserRepo,
		enrich: &enricher{
			owners:    params.UserRepo,
			ratings:   params.Ratings,
			favorites: params.Favorites,
		},
		logg: params.Logger,
	}, nil
}

// Create opens a new listing. Only verified, non-banned accounts may list.
// The advert row and its specification rows are written in two steps; if
// the second fails the advert survives without attributes.
func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateAdvertRequest) (*AdvertDTO, error) {
	actor, err := s.loadUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Banned {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is banned")
	}
	if !actor.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email verification required to list adverts")
	}
	if req.PhotoURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one photo is required")
	}
	if req.Price < 0 || req.OldPrice < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	advert := &models.Advert{
		UserID:           actorID,
		Category:         req.Category,
		Title:            req.Title,
		Description:      req.Description,
		Price:            req.Price,
		OldPrice:         req.OldPrice,
		Lat:              req.Lat,
		Lon:              req.Lon,
		PhotoURL:         req.PhotoURL,
		AdditionalPhotos: req.AdditionalPhotos,
		Available:        true,
	}

	created, err := s.adverts.Create(ctx, advert)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create advert")
	}
	if err := s.adverts.CreateSpecifications(ctx, created.ID, req.Specifications); err != nil {
		// The advert row is already committed; report the partial write.
		s.logg.Error(ctx, "create specifications", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create specifications")
	}

	full, err := s.adverts.FindByID(ctx, created.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload advert")
	}
	return s.enrichOne(ctx, full, &actorID)
}

// Update edits a listing. Only the owner may edit, and a sold advert is
// immutable even for its owner.
func (s *service) Update(ctx context.Context, actorID uuid.UUID, advertID uuid.UUID, req UpdateAdvertRequest) (*AdvertDTO, error) {
	advert, err := s.loadAdvert(ctx, advertID)
	if err != nil {
		return nil, err
	}
	if advert.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can edit an advert")
	}
	if advert.SoldTo != nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sold adverts cannot be edited")
	}

	updates := map[string]any{}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *req.Price
	}
	if req.OldPrice != nil {
		updates["old_price"] = *req.OldPrice
	}
	if req.Lat != nil {
		updates["lat"] = *req.Lat
	}
	if req.Lon != nil {
		updates["lon"] = *req.Lon
	}
	if req.PhotoURL != nil {
		if *req.PhotoURL == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one photo is required")
		}
		updates["photo_url"] = *req.PhotoURL
	}
	if req.AdditionalPhotos != nil {
		updates["additional_photos"] = pq.StringArray(req.AdditionalPhotos)
	}

	if err := s.adverts.Update(ctx, advertID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update advert")
	}
	if req.Specifications != nil {
		if err := s.adverts.ReplaceSpecifications(ctx, advertID, req.Specifications); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace specifications")
		}
	}

	full, err := s.adverts.FindByID(ctx, advertID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload advert")
	}
	return s.enrichOne(ctx, full, &actorID)
}

// Delete removes a listing. Owners can delete while unsold; admins and
// moderators can always delete.
func (s *service) Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.Role, advertID uuid.UUID) error {
	advert, err := s.loadAdvert(ctx, advertID)
	if err != nil {
		return err
	}

	if !actorRole.IsStaff() {
		if advert.UserID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can delete an advert")
		}
		if advert.SoldTo != nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sold adverts cannot be deleted by their owner")
		}
	}

	if err := s.adverts.Delete(ctx, advertID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete advert")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, advertID uuid.UUID, viewer *uuid.UUID) (*AdvertDTO, error) {
	advert, err := s.loadAdvert(ctx, advertID)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, advert, viewer)
}

// GetByIDs loads and enriches the given adverts with one storage round
// trip, preserving the requested order. Ids without a row are skipped.
func (s *service) GetByIDs(ctx context.Context, advertIDs []uuid.UUID, viewer *uuid.UUID) ([]AdvertDTO, error) {
	if len(advertIDs) == 0 {
		return []AdvertDTO{}, nil
	}

	rows, err := s.adverts.FindByIDs(ctx, advertIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load adverts")
	}
	byID := make(map[uuid.UUID]models.Advert, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]models.Advert, 0, len(rows))
	for _, id := range advertIDs {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return s.enrich.enrich(ctx, ordered, viewer)
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID, viewer *uuid.UUID) ([]AdvertDTO, error) {
	rows, err := s.adverts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adverts by owner")
	}
	return s.enrich.enrich(ctx, rows, viewer)
}

func (s *service) loadAdvert(ctx context.Context, id uuid.UUID) (*models.Advert, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "advert id is required")
	}
	advert, err := s.adverts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "advert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load advert")
	}
	return advert, nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
