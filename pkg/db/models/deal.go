package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/enums"
)

// Deal is the single negotiated offer a chat can hold.
type Deal struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChatID      uuid.UUID        `gorm:"column:chat_id;type:uuid;not null;uniqueIndex"`
	RequesterID uuid.UUID        `gorm:"column:requester_id;type:uuid;not null"`
	Price       float64          `gorm:"column:price;not null"`
	Status      enums.DealStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}
