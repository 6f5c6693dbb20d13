package chats

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
)

// Repository encapsulates chat, message, and deal persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a chats repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateChat opens a thread between the advert and one participant. The
// unique index on (advert_id, participant_id) rejects a second thread for
// the same pair.
func (r *Repository) CreateChat(ctx context.Context, advertID, participantID uuid.UUID) (*models.Chat, error) {
	chat := &models.Chat{AdvertID: advertID, ParticipantID: participantID}
	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// FindChatByID loads one chat.
func (r *Repository) FindChatByID(ctx context.Context, chatID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).First(&chat, "id = ?", chatID).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindChatByAdvertAndParticipant loads the thread for the pair, if any.
func (r *Repository) FindChatByAdvertAndParticipant(ctx context.Context, advertID, participantID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		First(&chat, "advert_id = ? AND participant_id = ?", advertID, participantID).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChatsForUser returns every thread the user is in, as participant or as
// owner of the advert, newest first.
func (r *Repository) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	owned := r.db.Model(&models.Advert{}).Select("id").Where("user_id = ?", userID)

	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Where("participant_id = ? OR advert_id IN (?)", userID, owned).
		Order("created_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// ArchiveChat marks one thread read-only.
func (r *Repository) ArchiveChat(ctx context.Context, chatID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("archived", true).Error
}

// ArchiveSiblings archives every other thread on the advert and drops their
// pending deals. Runs when one thread's deal is accepted.
func (r *Repository) ArchiveSiblings(ctx context.Context, advertID, keepChatID uuid.UUID) error {
	siblings := r.db.Model(&models.Chat{}).Select("id").
		Where("advert_id = ? AND id <> ?", advertID, keepChatID)

	if err := r.db.WithContext(ctx).
		Where("chat_id IN (?)", siblings).
		Delete(&models.Deal{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("advert_id = ? AND id <> ?", advertID, keepChatID).
		Update("archived", true).Error
}

// PurgeByUser removes the user's threads on both sides of the table, along
// with their deals. Messages cascade with the chat rows.
func (r *Repository) PurgeByUser(ctx context.Context, userID uuid.UUID) error {
	owned := r.db.Model(&models.Advert{}).Select("id").Where("user_id = ?", userID)
	affected := r.db.Model(&models.Chat{}).Select("id").
		Where("participant_id = ? OR advert_id IN (?)", userID, owned)

	if err := r.db.WithContext(ctx).
		Where("chat_id IN (?)", affected).
		Delete(&models.Deal{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("participant_id = ? OR advert_id IN (?)", userID, owned).
		Delete(&models.Chat{}).Error
}

// CreateMessage appends one message to a thread.
func (r *Repository) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages returns the thread's messages oldest first.
func (r *Repository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CreateDeal attaches a pending offer to a thread. The unique index on
// chat_id rejects a second deal.
func (r *Repository) CreateDeal(ctx context.Context, deal *models.Deal) (*models.Deal, error) {
	if err := r.db.WithContext(ctx).Create(deal).Error; err != nil {
		return nil, err
	}
	return deal, nil
}

// FindDealByChat loads the thread's deal, if any.
func (r *Repository) FindDealByChat(ctx context.Context, chatID uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	if err := r.db.WithContext(ctx).First(&deal, "chat_id = ?", chatID).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// UpdateDealStatus moves the deal to the given state.
func (r *Repository) UpdateDealStatus(ctx context.Context, dealID uuid.UUID, status enums.DealStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("id = ?", dealID).
		Update("status", status).Error
}

// DeleteDeal removes the deal row.
func (r *Repository) DeleteDeal(ctx context.Context, dealID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Deal{}, "id = ?", dealID).Error
}
