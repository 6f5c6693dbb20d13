package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
)

// PaymentDTO is the API shape of a balance top-up.
type PaymentDTO struct {
	ID        uuid.UUID           `json:"id"`
	OrderID   string              `json:"order_id"`
	UserID    uuid.UUID           `json:"user_id"`
	Amount    decimal.Decimal     `json:"amount"`
	Status    enums.PaymentStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

func fromModel(payment *models.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:        payment.ID,
		OrderID:   payment.OrderID,
		UserID:    payment.UserID,
		Amount:    payment.Amount,
		Status:    payment.Status,
		CreatedAt: payment.CreatedAt,
	}
}
