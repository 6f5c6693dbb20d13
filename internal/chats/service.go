package chats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// Service exposes conversation threads and deal negotiation.
type Service interface {
	StartChat(ctx context.Context, callerID, advertID uuid.UUID) (*ChatDTO, error)
	ListChats(ctx context.Context, userID uuid.UUID) ([]ChatDTO, error)
	SendMessage(ctx context.Context, callerID, chatID uuid.UUID, req SendMessageRequest) (*MessageDTO, error)
	Messages(ctx context.Context, callerID, chatID uuid.UUID) ([]MessageDTO, error)

	RequestDeal(ctx context.Context, callerID, chatID uuid.UUID, req RequestDealRequest) (*DealDTO, error)
	StopDeal(ctx context.Context, callerID, chatID uuid.UUID) error
	DeclineDeal(ctx context.Context, callerID, chatID uuid.UUID) error
	AcceptDeal(ctx context.Context, callerID, chatID uuid.UUID) (*DealDTO, error)
	CompleteDeal(ctx context.Context, callerID, chatID uuid.UUID) (*DealDTO, error)
}

type chatRepository interface {
	CreateChat(ctx context.Context, advertID, participantID uuid.UUID) (*models.Chat, error)
	FindChatByID(ctx context.Context, chatID uuid.UUID) (*models.Chat, error)
	FindChatByAdvertAndParticipant(ctx context.Context, advertID, participantID uuid.UUID) (*models.Chat, error)
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	ArchiveChat(ctx context.Context, chatID uuid.UUID) error
	ArchiveSiblings(ctx context.Context, advertID, keepChatID uuid.UUID) error
	CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	CreateDeal(ctx context.Context, deal *models.Deal) (*models.Deal, error)
	FindDealByChat(ctx context.Context, chatID uuid.UUID) (*models.Deal, error)
	UpdateDealStatus(ctx context.Context, dealID uuid.UUID, status enums.DealStatus) error
	DeleteDeal(ctx context.Context, dealID uuid.UUID) error
}

type advertStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Advert, error)
	MarkSold(ctx context.Context, id, buyerID uuid.UUID) error
	SetAvailable(ctx context.Context, id uuid.UUID, available bool) error
}

// ServiceParams groups dependencies for the chats service.
type ServiceParams struct {
	ChatRepo   chatRepository
	AdvertRepo advertStore
	Logger     zerolog.Logger
}

type service struct {
	chats   chatRepository
	adverts advertStore
	logg    zerolog.Logger
}

// NewService builds a chats service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ChatRepo == nil {
		return nil, fmt.Errorf("chat repository is required")
	}
	if params.AdvertRepo == nil {
		return nil, fmt.Errorf("advert repository is required")
	}
	return &service{
		chats:   params.ChatRepo,
		adverts: params.AdvertRepo,
		logg:    params.Logger,
	}, nil
}

// StartChat opens a thread on the advert for the caller. Starting a thread
// that already exists returns the existing one.
func (s *service) StartChat(ctx context.Context, callerID, advertID uuid.UUID) (*ChatDTO, error) {
	advert, err := s.loadAdvert(ctx, advertID)
	if err != nil {
		return nil, err
	}
	if advert.UserID == callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot start a chat on your own advert")
	}
	if !advert.Available {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "advert is no longer available")
	}

	existing, err := s.chats.FindChatByAdvertAndParticipant(ctx, advertID, callerID)
	if err == nil {
		return s.withDeal(ctx, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat")
	}

	chat, err := s.chats.CreateChat(ctx, advertID, callerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat")
	}
	return chatFromModel(chat), nil
}

// ListChats returns every thread the user takes part in, with deals attached.
func (s *service) ListChats(ctx context.Context, userID uuid.UUID) ([]ChatDTO, error) {
	rows, err := s.chats.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chats")
	}

	result := make([]ChatDTO, 0, len(rows))
	for i := range rows {
		dto, err := s.withDeal(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *dto)
	}
	return result, nil
}

// SendMessage appends a message to an open thread. Only the advert owner and
// the thread participant may write, and archived threads are read-only.
func (s *service) SendMessage(ctx context.Context, callerID, chatID uuid.UUID, req SendMessageRequest) (*MessageDTO, error) {
	chat, _, err := s.memberChat(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Archived {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "chat is archived")
	}

	message, err := s.chats.CreateMessage(ctx, &models.Message{
		ChatID:   chat.ID,
		SenderID: callerID,
		Content:  req.Content,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
	}
	return messageFromModel(message), nil
}

// Messages returns the thread's history oldest first.
func (s *service) Messages(ctx context.Context, callerID, chatID uuid.UUID) ([]MessageDTO, error) {
	chat, _, err := s.memberChat(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}

	rows, err := s.chats.ListMessages(ctx, chat.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}
	result := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *messageFromModel(&rows[i]))
	}
	return result, nil
}

// RequestDeal opens price negotiation in the thread. A thread holds at most
// one deal at a time.
func (s *service) RequestDeal(ctx context.Context, callerID, chatID uuid.UUID, req RequestDealRequest) (*DealDTO, error) {
	chat, _, err := s.memberChat(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Archived {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "chat is archived")
	}
	if req.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	if _, err := s.chats.FindDealByChat(ctx, chat.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "deal already active")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}

	deal, err := s.chats.CreateDeal(ctx, &models.Deal{
		ChatID:      chat.ID,
		RequesterID: callerID,
		Price:       req.Price,
		Status:      enums.DealStatusPending,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deal")
	}
	return dealFromModel(deal), nil
}

// StopDeal cancels the negotiation and releases the advert. Either member
// can stop a deal that has not completed.
func (s *service) StopDeal(ctx context.Context, callerID, chatID uuid.UUID) error {
	chat, deal, err := s.memberDeal(ctx, callerID, chatID)
	if err != nil {
		return err
	}
	if deal.Status == enums.DealStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeConflict, "deal already completed")
	}

	if err := s.chats.DeleteDeal(ctx, deal.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete deal")
	}
	if err := s.adverts.SetAvailable(ctx, chat.AdvertID, true); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release advert")
	}
	return nil
}

// DeclineDeal withdraws a pending offer. Only the requester can decline.
func (s *service) DeclineDeal(ctx context.Context, callerID, chatID uuid.UUID) error {
	_, deal, err := s.memberDeal(ctx, callerID, chatID)
	if err != nil {
		return err
	}
	if deal.RequesterID != callerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the requester can decline the deal")
	}
	if deal.Status != enums.DealStatusPending {
		return pkgerrors.New(pkgerrors.CodeConflict, "deal is no longer pending")
	}

	if err := s.chats.DeleteDeal(ctx, deal.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete deal")
	}
	return nil
}

// AcceptDeal locks the advert for this thread. Only the counterparty of the
// requester can accept; every other thread on the advert is archived and
// loses its deal.
func (s *service) AcceptDeal(ctx context.Context, callerID, chatID uuid.UUID) (*DealDTO, error) {
	chat, deal, err := s.memberDeal(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	if deal.RequesterID == callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "the requester cannot accept their own deal")
	}
	if deal.Status != enums.DealStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "deal is no longer pending")
	}

	if err := s.chats.UpdateDealStatus(ctx, deal.ID, enums.DealStatusAccepted); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept deal")
	}
	if err := s.adverts.SetAvailable(ctx, chat.AdvertID, false); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hold advert")
	}
	if err := s.chats.ArchiveSiblings(ctx, chat.AdvertID, chat.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive sibling chats")
	}

	deal.Status = enums.DealStatusAccepted
	return dealFromModel(deal), nil
}

// CompleteDeal finalizes an accepted deal: the advert is sold to the thread
// participant and the thread is archived. Completing is what later entitles
// the buyer to review the advert.
func (s *service) CompleteDeal(ctx context.Context, callerID, chatID uuid.UUID) (*DealDTO, error) {
	chat, deal, err := s.memberDeal(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	if deal.Status != enums.DealStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "deal must be accepted first")
	}

	if err := s.chats.UpdateDealStatus(ctx, deal.ID, enums.DealStatusCompleted); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete deal")
	}
	if err := s.adverts.MarkSold(ctx, chat.AdvertID, chat.ParticipantID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark advert sold")
	}
	if err := s.chats.ArchiveChat(ctx, chat.ID); err != nil {
		s.logg.Error().Err(err).Str("chat_id", chat.ID.String()).Msg("archive completed chat")
	}

	deal.Status = enums.DealStatusCompleted
	return dealFromModel(deal), nil
}

func (s *service) loadAdvert(ctx context.Context, advertID uuid.UUID) (*models.Advert, error) {
	advert, err := s.adverts.FindByID(ctx, advertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "advert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load advert")
	}
	return advert, nil
}

// memberChat loads the chat and its advert, and verifies the caller is one
// of the two thread members.
func (s *service) memberChat(ctx context.Context, callerID, chatID uuid.UUID) (*models.Chat, *models.Advert, error) {
	chat, err := s.chats.FindChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat")
	}

	advert, err := s.loadAdvert(ctx, chat.AdvertID)
	if err != nil {
		return nil, nil, err
	}
	if callerID != chat.ParticipantID && callerID != advert.UserID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this chat")
	}
	return chat, advert, nil
}

func (s *service) memberDeal(ctx context.Context, callerID, chatID uuid.UUID) (*models.Chat, *models.Deal, error) {
	chat, _, err := s.memberChat(ctx, callerID, chatID)
	if err != nil {
		return nil, nil, err
	}

	deal, err := s.chats.FindDealByChat(ctx, chat.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active deal")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	return chat, deal, nil
}

func (s *service) withDeal(ctx context.Context, chat *models.Chat) (*ChatDTO, error) {
	dto := chatFromModel(chat)
	deal, err := s.chats.FindDealByChat(ctx, chat.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	dto.Deal = dealFromModel(deal)
	return dto, nil
}
