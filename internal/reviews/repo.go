package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
)

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reviews repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the review. The unique index on advert_id makes a second
// review for the same advert fail.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// FindByAdvert loads the advert's review, if any.
func (r *Repository) FindByAdvert(ctx context.Context, advertID uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "advert_id = ?", advertID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListForOwner returns every review written on the owner's adverts.
func (r *Repository) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.WithContext(ctx).
		Joins("JOIN adverts ON adverts.id = reviews.advert_id").
		Where("adverts.user_id = ?", ownerID).
		Order("reviews.created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// AverageRatingByOwner computes, per owner, the arithmetic mean of ratings
// across all reviews on that owner's adverts. Owners without reviews are
// absent from the map; callers treat that as zero.
func (r *Repository) AverageRatingByOwner(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	result := make(map[uuid.UUID]float64, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	type row struct {
		OwnerID uuid.UUID `gorm:"column:owner_id"`
		Rating  float64   `gorm:"column:rating"`
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("adverts.user_id AS owner_id, AVG(reviews.rating) AS rating").
		Joins("JOIN adverts ON adverts.id = reviews.advert_id").
		Where("adverts.user_id IN ?", ownerIDs).
		Group("adverts.user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, entry := range rows {
		result[entry.OwnerID] = entry.Rating
	}
	return result, nil
}
