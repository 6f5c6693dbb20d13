package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adee-tech/adee-backend/pkg/enums"
)

// User represents the canonical identity entity. Email, phone, and
// password hash are all nullable at the storage layer; the invariant that
// at least one identity channel and one credential channel is present is
// enforced by the users package constructor, not by the schema alone.
type User struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         *string         `gorm:"column:email;type:text;uniqueIndex"`
	Phone         *string         `gorm:"column:phone;type:text;uniqueIndex"`
	PasswordHash  *string         `gorm:"column:password_hash"`
	ExternalID    *string         `gorm:"column:external_id"`
	Name          *string         `gorm:"column:name"`
	Surname       *string         `gorm:"column:surname"`
	CompanyName   *string         `gorm:"column:company_name"`
	AvatarURL     *string         `gorm:"column:avatar_url"`
	Role          enums.Role      `gorm:"column:role;type:text;not null;default:'user'"`
	Banned        bool            `gorm:"column:banned;not null;default:false"`
	EmailVerified bool            `gorm:"column:email_verified;not null;default:false"`
	Balance       decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
