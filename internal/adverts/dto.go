package adverts

import (
	"time"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
)

// SpecificationDTO is one key/value attribute of an advert.
type SpecificationDTO struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OwnerSummary is the public slice of the advert owner's profile.
type OwnerSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        *string   `json:"name,omitempty"`
	Surname     *string   `json:"surname,omitempty"`
	CompanyName *string   `json:"company_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// AdvertDTO is the enriched transport shape for one listing.
type AdvertDTO struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"user_id"`
	Category         string             `json:"category"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Price            float64            `json:"price"`
	OldPrice         float64            `json:"old_price"`
	Lat              float64            `json:"lat"`
	Lon              float64            `json:"lon"`
	PhotoURL         string             `json:"photo_url"`
	AdditionalPhotos []string           `json:"additional_photos"`
	Available        bool               `json:"available"`
	SoldTo           *uuid.UUID         `json:"sold_to,omitempty"`
	Specifications   []SpecificationDTO `json:"specifications"`
	Owner            *OwnerSummary      `json:"owner,omitempty"`
	OwnerRating      float64            `json:"owner_rating"`
	IsFavorited      bool               `json:"is_favorited"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// SpecificationInput is a key/value pair supplied at create/edit time.
type SpecificationInput struct {
	Key   string `json:"key" validate:"required,max=64"`
	Value string `json:"value" validate:"required,max=256"`
}

// CreateAdvertRequest carries the payload for a new listing.
type CreateAdvertRequest struct {
	Category         string               `json:"category" validate:"required,max=64"`
	Title            string               `json:"title" validate:"required,max=128"`
	Description      string               `json:"description" validate:"required,max=8192"`
	Price            float64              `json:"price" validate:"gte=0"`
	OldPrice         float64              `json:"old_price" validate:"gte=0"`
	Lat              float64              `json:"lat" validate:"gte=-90,lte=90"`
	Lon              float64              `json:"lon" validate:"gte=-180,lte=180"`
	PhotoURL         string               `json:"photo_url" validate:"required,url"`
	AdditionalPhotos []string             `json:"additional_photos" validate:"dive,url"`
	Specifications   []SpecificationInput `json:"specifications" validate:"dive"`
}

// UpdateAdvertRequest carries mutable listing fields. Nil means unchanged;
// a non-nil Specifications slice replaces the whole set.
type UpdateAdvertRequest struct {
	Category         *string              `json:"category,omitempty" validate:"omitempty,max=64"`
	Title            *string              `json:"title,omitempty" validate:"omitempty,max=128"`
	Description      *string              `json:"description,omitempty" validate:"omitempty,max=8192"`
	Price            *float64             `json:"price,omitempty" validate:"omitempty,gte=0"`
	OldPrice         *float64             `json:"old_price,omitempty" validate:"omitempty,gte=0"`
	Lat              *float64             `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lon              *float64             `json:"lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
	PhotoURL         *string              `json:"photo_url,omitempty" validate:"omitempty,url"`
	AdditionalPhotos []string             `json:"additional_photos,omitempty" validate:"omitempty,dive,url"`
	Specifications   []SpecificationInput `json:"specifications,omitempty" validate:"omitempty,dive"`
}

// SearchParams holds every filter a browse request can carry.
type SearchParams struct {
	Category     *string
	Title        *string
	MinPrice     *float64
	MaxPrice     *float64
	MinRating    *float64
	CustomFields map[string]string

	CenterLat *float64
	CenterLon *float64
	RangeKM   *float64

	SortField enums.SortField
	SortOrder enums.SortOrder

	Offset int
	Limit  int
}

func fromModel(advert *models.Advert) AdvertDTO {
	specs := make([]SpecificationDTO, 0, len(advert.Specifications))
	for _, spec := range advert.Specifications {
		specs = append(specs, SpecificationDTO{Key: spec.Key, Value: spec.Value})
	}
	return AdvertDTO{
		ID:               advert.ID,
		UserID:           advert.UserID,
		Category:         advert.Category,
		Title:            advert.Title,
		Description:      advert.Description,
		Price:            advert.Price,
		OldPrice:         advert.OldPrice,
		Lat:              advert.Lat,
		Lon:              advert.Lon,
		PhotoURL:         advert.PhotoURL,
		AdditionalPhotos: append([]string(nil), advert.AdditionalPhotos...),
		Available:        advert.Available,
		SoldTo:           advert.SoldTo,
		Specifications:   specs,
		CreatedAt:        advert.CreatedAt,
		UpdatedAt:        advert.UpdatedAt,
	}
}

func ownerSummaryFromModel(user *models.User) *OwnerSummary {
	if user == nil {
		return nil
	}
	return &OwnerSummary{
		ID:          user.ID,
		Name:        user.Name,
		Surname:     user.Surname,
		CompanyName: user.CompanyName,
		AvatarURL:   user.AvatarURL,
	}
}
