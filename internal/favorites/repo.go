package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
)

// Repository encapsulates favorite persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the bookmark. The (user_id, advert_id) unique index makes
// a second insert fail, which the service maps to a conflict.
func (r *Repository) Create(ctx context.Context, userID, advertID uuid.UUID) (*models.Favorite, error) {
	favorite := &models.Favorite{UserID: userID, AdvertID: advertID}
	if err := r.db.WithContext(ctx).Create(favorite).Error; err != nil {
		return nil, err
	}
	return favorite, nil
}

// Delete removes the bookmark if it exists and reports whether it did.
func (r *Repository) Delete(ctx context.Context, userID, advertID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND advert_id = ?", userID, advertID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AdvertIDsForUser lists every advert the user has bookmarked, newest first.
func (r *Repository) AdvertIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("advert_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FavoritedSet reports, for a batch of adverts, which ones the user has
// bookmarked. Feeds the is_favorited enrichment flag.
func (r *Repository) FavoritedSet(ctx context.Context, userID uuid.UUID, advertIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(advertIDs))
	if len(advertIDs) == 0 {
		return result, nil
	}
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND advert_id IN ?", userID, advertIDs).
		Pluck("advert_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
