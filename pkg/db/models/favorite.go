package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite links a user to a bookmarked advert. One row per pair.
type Favorite struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:favorites_user_id_idx;uniqueIndex:favorites_user_advert_key"`
	AdvertID  uuid.UUID `gorm:"column:advert_id;type:uuid;not null;index:favorites_advert_id_idx;uniqueIndex:favorites_user_advert_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
