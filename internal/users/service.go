package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// Service exposes profile and moderation operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*UserDTO, error)
	SetBanned(ctx context.Context, actorRole enums.Role, targetID uuid.UUID, banned bool) (*UserDTO, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
}

type sessionRevoker interface {
	Revoke(ctx context.Context, userID uuid.UUID) error
}

// contentPurger removes a banned user's listings and conversations.
type contentPurger interface {
	PurgeByUser(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams groups dependencies for the users service.
type ServiceParams struct {
	UserRepo    userRepository
	Sessions    sessionRevoker
	AdvertPurge contentPurger
	ChatPurge   contentPurger
}

type service struct {
	users       userRepository
	sessions    sessionRevoker
	advertPurge contentPurger
	chatPurge   contentPurger
}

// NewService builds a users service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session revoker is required")
	}
	return &service{
		users:       params.UserRepo,
		sessions:    params.Sessions,
		advertPurge: params.AdvertPurge,
		chatPurge:   params.ChatPurge,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*UserDTO, error) {
	if _, err := s.findUser(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, id, dto); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// SetBanned flips the ban flag on the target account. Banning also revokes
// the target's refresh session and purges their adverts and chats;
// unbanning restores nothing.
func (s *service) SetBanned(ctx context.Context, actorRole enums.Role, targetID uuid.UUID, banned bool) (*UserDTO, error) {
	if actorRole != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can ban users")
	}

	user, err := s.findUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.Role == enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be banned")
	}

	if err := s.users.SetBanned(ctx, targetID, banned); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set banned flag")
	}
	user.Banned = banned

	if banned {
		if err := s.sessions.Revoke(ctx, targetID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
		}
		if s.advertPurge != nil {
			if err := s.advertPurge.PurgeByUser(ctx, targetID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge adverts")
			}
		}
		if s.chatPurge != nil {
			if err := s.chatPurge.PurgeByUser(ctx, targetID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge chats")
			}
		}
	}

	return FromModel(user), nil
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
