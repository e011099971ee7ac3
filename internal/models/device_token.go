package models

import "time"

// DeviceToken registers an FCM token for push notification delivery.
type DeviceToken struct {
	BaseModel

	UserID   string `gorm:"type:uuid;not null;index" json:"user_id"`
	Token    string `gorm:"uniqueIndex;not null" json:"token"`
	Platform string `gorm:"type:varchar(16)" json:"platform"`

	LastSeenAt time.Time `json:"last_seen_at"`
}
