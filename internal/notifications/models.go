package notifications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification is one entry of a user's notification center.
type Notification struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	Type        string         `json:"type" gorm:"not null"`
	Title       string         `json:"title" gorm:"not null"`
	Message     string         `json:"message" gorm:"not null"`
	ActionURL   *string        `json:"action_url"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	RelatedID   *uuid.UUID     `json:"related_id" gorm:"type:uuid"`
	RelatedType *string        `json:"related_type"`
	Read        bool           `json:"read" gorm:"default:false;index"`
	ReadAt      *time.Time     `json:"read_at"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}
