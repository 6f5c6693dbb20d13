package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/api/middleware"
	"github.com/adee-tech/adee-backend/api/responses"
	"github.com/adee-tech/adee-backend/api/validators"
	"github.com/adee-tech/adee-backend/internal/auth"
	"github.com/adee-tech/adee-backend/internal/chats"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	"github.com/adee-tech/adee-backend/pkg/logger"
)

// ChatStart opens (or returns) the caller's conversation on a listing.
func ChatStart(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		advertID, err := parseAdvertID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chat, err := svc.StartChat(ctx, principal.UserID, advertID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, chat)
	}
}

// ChatList returns every conversation the caller takes part in.
func ChatList(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListChats(ctx, principal.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ChatSendMessage appends a message to an open conversation.
func ChatSendMessage(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := parseChatID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req chats.SendMessageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		message, err := svc.SendMessage(ctx, principal.UserID, chatID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// ChatMessages returns a conversation's history, oldest first.
func ChatMessages(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := parseChatID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Messages(ctx, principal.UserID, chatID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DealRequest proposes a price inside a conversation.
func DealRequest(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := parseChatID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req chats.RequestDealRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deal, err := svc.RequestDeal(ctx, principal.UserID, chatID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, deal)
	}
}

// DealStop cancels the conversation's deal and releases the listing.
func DealStop(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return dealAction(svc.StopDeal, "stopped", logg)
}

// DealDecline rejects a pending proposal. Only the requester may decline.
func DealDecline(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return dealAction(svc.DeclineDeal, "declined", logg)
}

// DealAccept locks the listing to this conversation and archives the rest.
func DealAccept(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return dealTransition(svc.AcceptDeal, logg)
}

// DealComplete marks the sale finished and records the buyer.
func DealComplete(svc chats.Service, logg *logger.Logger) http.HandlerFunc {
	return dealTransition(svc.CompleteDeal, logg)
}

func dealAction(fn func(ctx context.Context, callerID, chatID uuid.UUID) error, status string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := parseChatID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := fn(ctx, principal.UserID, chatID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

func dealTransition(fn func(ctx context.Context, callerID, chatID uuid.UUID) (*chats.DealDTO, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		chatID, err := parseChatID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deal, err := fn(ctx, principal.UserID, chatID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

func parseChatID(r *http.Request) (uuid.UUID, error) {
	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid chat id")
	}
	return chatID, nil
}

func requirePrincipal(r *http.Request) (*auth.Principal, error) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return principal, nil
}
