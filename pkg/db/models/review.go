package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is the single buyer review an advert can carry. The unique index
// on advert_id is what enforces the one-review-per-advert rule.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdvertID  uuid.UUID `gorm:"column:advert_id;type:uuid;not null;uniqueIndex"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Rating    int       `gorm:"column:rating;not null"`
	Message   string    `gorm:"column:message;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
