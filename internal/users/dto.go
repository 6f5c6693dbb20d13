package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID            uuid.UUID       `json:"id"`
	Email         *string         `json:"email,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
	Name          *string         `json:"name,omitempty"`
	Surname       *string         `json:"surname,omitempty"`
	CompanyName   *string         `json:"company_name,omitempty"`
	AvatarURL     *string         `json:"avatar_url,omitempty"`
	Role          enums.Role      `json:"role"`
	Banned        bool            `json:"banned"`
	EmailVerified bool            `json:"email_verified"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewUserParams holds the raw inputs for constructing a user record.
type NewUserParams struct {
	Email        *string
	Phone        *string
	PasswordHash *string
	ExternalID   *string
	Name         *string
	Surname      *string
	CompanyName  *string
	AvatarURL    *string
	Role         enums.Role
}

// NewUser builds a user model and enforces the identity invariant: at least
// one contact channel (email or phone) and at least one credential channel
// (password hash or external provider id) must be present.
func NewUser(params NewUserParams) (*models.User, error) {
	email := normalizeOptional(params.Email)
	phone := normalizeOptional(params.Phone)
	if email != nil {
		lowered := strings.ToLower(*email)
		email = &lowered
	}

	if email == nil && phone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email or phone is required")
	}
	if isBlank(params.PasswordHash) && isBlank(params.ExternalID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password or external identity is required")
	}

	role := params.Role
	if role == "" {
		role = enums.RoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	return &models.User{
		Email:        email,
		Phone:        phone,
		PasswordHash: params.PasswordHash,
		ExternalID:   params.ExternalID,
		Name:         normalizeOptional(params.Name),
		Surname:      normalizeOptional(params.Surname),
		CompanyName:  normalizeOptional(params.CompanyName),
		AvatarURL:    normalizeOptional(params.AvatarURL),
		Role:         role,
		Balance:      decimal.Zero,
	}, nil
}

// UpdateProfileDTO carries the mutable profile fields. Nil means unchanged.
type UpdateProfileDTO struct {
	Name        *string
	Surname     *string
	CompanyName *string
	AvatarURL   *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		Name:          u.Name,
		Surname:       u.Surname,
		CompanyName:   u.CompanyName,
		AvatarURL:     u.AvatarURL,
		Role:          u.Role,
		Banned:        u.Banned,
		EmailVerified: u.EmailVerified,
		Balance:       u.Balance,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isBlank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}
