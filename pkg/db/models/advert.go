package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Advert represents a classified listing owned by one user.
type Advert struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Category         string          `gorm:"column:category;not null;index"`
	Title            string          `gorm:"column:title;not null"`
	Description      string          `gorm:"column:description;not null"`
	Price            float64         `gorm:"column:price;not null"`
	OldPrice         float64         `gorm:"column:old_price;not null"`
	Lat              float64         `gorm:"column:lat;not null"`
	Lon              float64         `gorm:"column:lon;not null"`
	PhotoURL         string          `gorm:"column:photo_url;not null"`
	AdditionalPhotos pq.StringArray  `gorm:"column:additional_photos;type:text[]"`
	Available        bool            `gorm:"column:available;not null;default:true"`
	SoldTo           *uuid.UUID      `gorm:"column:sold_to;type:uuid"`
	Specifications   []Specification `gorm:"foreignKey:AdvertID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
