package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a per-advert conversation between the advert owner and one
// interested participant. Archived chats stay readable but reject new
// messages and deals.
type Chat struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdvertID      uuid.UUID `gorm:"column:advert_id;type:uuid;not null;index:chats_advert_id_idx;uniqueIndex:chats_advert_participant_key"`
	ParticipantID uuid.UUID `gorm:"column:participant_id;type:uuid;not null;uniqueIndex:chats_advert_participant_key"`
	Archived      bool      `gorm:"column:archived;not null;default:false"`
	Messages      []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
