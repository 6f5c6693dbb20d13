package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// Service exposes buyer reviews on sold adverts.
type Service interface {
	Write(ctx context.Context, callerID, advertID uuid.UUID, req WriteReviewRequest) (*ReviewDTO, error)
	ForAdvert(ctx context.Context, advertID uuid.UUID) (*ReviewDTO, error)
	ForOwner(ctx context.Context, ownerID uuid.UUID) ([]ReviewDTO, error)
}

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByAdvert(ctx context.Context, advertID uuid.UUID) (*models.Review, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Review, error)
}

type advertFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Advert, error)
}

type reviewerLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// ServiceParams groups dependencies for the reviews service.
type ServiceParams struct {
	ReviewRepo reviewRepository
	AdvertRepo advertFinder
	UserRepo   reviewerLoader
}

type service struct {
	reviews reviewRepository
	adverts advertFinder
	users   reviewerLoader
}

// NewService builds a reviews service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ReviewRepo == nil {
		return nil, fmt.Errorf("review repository is required")
	}
	if params.AdvertRepo == nil {
		return nil, fmt.Errorf("advert repository is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{
		reviews: params.ReviewRepo,
		adverts: params.AdvertRepo,
		users:   params.UserRepo,
	}, nil
}

// Write records the buyer's review of a completed purchase. Only the user the
// advert was sold to may review it, the advert owner never can, and an advert
// holds at most one review.
func (s *service) Write(ctx context.Context, callerID, advertID uuid.UUID, req WriteReviewRequest) (*ReviewDTO, error) {
	if callerID == uuid.Nil || advertID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "caller id and advert id are required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	advert, err := s.adverts.FindByID(ctx, advertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "advert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load advert")
	}
	if advert.UserID == callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot review your own advert")
	}
	if advert.SoldTo == nil || *advert.SoldTo != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can review this advert")
	}

	review, err := s.reviews.Create(ctx, &models.Review{
		AdvertID: advertID,
		UserID:   callerID,
		Rating:   req.Rating,
		Message:  req.Message,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "advert already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return s.withReviewer(ctx, review)
}

// ForAdvert returns the advert's review with the reviewer attached.
func (s *service) ForAdvert(ctx context.Context, advertID uuid.UUID) (*ReviewDTO, error) {
	review, err := s.reviews.FindByAdvert(ctx, advertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return s.withReviewer(ctx, review)
}

// ForOwner lists reviews across all of the owner's adverts, newest first.
func (s *service) ForOwner(ctx context.Context, ownerID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.reviews.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	reviewers, err := s.loadReviewers(ctx, rows)
	if err != nil {
		return nil, err
	}

	result := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		dto := fromModel(&rows[i])
		if reviewer, ok := reviewers[rows[i].UserID]; ok {
			dto.Reviewer = reviewer
		}
		result = append(result, *dto)
	}
	return result, nil
}

func (s *service) withReviewer(ctx context.Context, review *models.Review) (*ReviewDTO, error) {
	dto := fromModel(review)
	users, err := s.users.FindByIDs(ctx, []uuid.UUID{review.UserID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviewer")
	}
	if len(users) > 0 {
		dto.Reviewer = reviewerSummaryFromModel(&users[0])
	}
	return dto, nil
}

func (s *service) loadReviewers(ctx context.Context, rows []models.Review) (map[uuid.UUID]*ReviewerSummary, error) {
	seen := make(map[uuid.UUID]bool, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		if !seen[rows[i].UserID] {
			seen[rows[i].UserID] = true
			ids = append(ids, rows[i].UserID)
		}
	}

	result := make(map[uuid.UUID]*ReviewerSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviewers")
	}
	for i := range users {
		result[users[i].ID] = reviewerSummaryFromModel(&users[i])
	}
	return result, nil
}
