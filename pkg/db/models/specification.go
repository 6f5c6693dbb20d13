package models

import "github.com/google/uuid"

// Specification is a free-form key/value attribute scoped to one advert
// (e.g. "color" -> "red"). Duplicate keys within an advert are tolerated.
type Specification struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdvertID uuid.UUID `gorm:"column:advert_id;type:uuid;not null;index"`
	Key      string    `gorm:"column:key;not null"`
	Value    string    `gorm:"column:value;not null"`
}
