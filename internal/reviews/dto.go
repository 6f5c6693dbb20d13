package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/db/models"
)

// WriteReviewRequest carries the buyer's rating and note for an advert.
type WriteReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Message string `json:"message" validate:"required,max=2000"`
}

// ReviewerSummary is the public slice of the reviewing user.
type ReviewerSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      *string   `json:"name,omitempty"`
	Surname   *string   `json:"surname,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

// ReviewDTO is the API shape of a review.
type ReviewDTO struct {
	ID        uuid.UUID        `json:"id"`
	AdvertID  uuid.UUID        `json:"advert_id"`
	Rating    int              `json:"rating"`
	Message   string           `json:"message"`
	Reviewer  *ReviewerSummary `json:"reviewer,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func fromModel(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:        review.ID,
		AdvertID:  review.AdvertID,
		Rating:    review.Rating,
		Message:   review.Message,
		CreatedAt: review.CreatedAt,
	}
}

func reviewerSummaryFromModel(user *models.User) *ReviewerSummary {
	return &ReviewerSummary{
		ID:        user.ID,
		Name:      user.Name,
		Surname:   user.Surname,
		AvatarURL: user.AvatarURL,
	}
}
