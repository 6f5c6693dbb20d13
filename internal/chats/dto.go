package chats

import (
	"time"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
)

// SendMessageRequest carries one chat message body.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// RequestDealRequest opens price negotiation in a chat.
type RequestDealRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// MessageDTO is the API shape of a chat message.
type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DealDTO is the API shape of the chat's negotiated offer.
type DealDTO struct {
	ID          uuid.UUID        `json:"id"`
	ChatID      uuid.UUID        `json:"chat_id"`
	RequesterID uuid.UUID        `json:"requester_id"`
	Price       float64          `json:"price"`
	Status      enums.DealStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ChatDTO is the API shape of a conversation thread.
type ChatDTO struct {
	ID            uuid.UUID `json:"id"`
	AdvertID      uuid.UUID `json:"advert_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Archived      bool      `json:"archived"`
	Deal          *DealDTO  `json:"deal,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func chatFromModel(chat *models.Chat) *ChatDTO {
	return &ChatDTO{
		ID:            chat.ID,
		AdvertID:      chat.AdvertID,
		ParticipantID: chat.ParticipantID,
		Archived:      chat.Archived,
		CreatedAt:     chat.CreatedAt,
	}
}

func messageFromModel(message *models.Message) *MessageDTO {
	return &MessageDTO{
		ID:        message.ID,
		ChatID:    message.ChatID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}

func dealFromModel(deal *models.Deal) *DealDTO {
	return &DealDTO{
		ID:          deal.ID,
		ChatID:      deal.ChatID,
		RequesterID: deal.RequesterID,
		Price:       deal.Price,
		Status:      deal.Status,
		CreatedAt:   deal.CreatedAt,
	}
}
