package models

import (
	"time"

	"gorm.io/datatypes"
)

// Kundli stores a generated birth chart: the birth details submitted by the
// user plus the payload returned by the astrology engine.
type Kundli struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Name      string    `gorm:"not null" json:"name"`
	Gender    string    `gorm:"type:varchar(16)" json:"gender"`
	BirthDate time.Time `gorm:"not null" json:"birth_date"`
	BirthTime string    `gorm:"type:varchar(8);not null" json:"birth_time"`
	Place     string    `gorm:"not null" json:"place"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timezone  float64   `json:"timezone"`

	// Chart holds the raw engine response so a kundli can be re-rendered
	// without another upstream call.
	Chart datatypes.JSON `json:"chart"`
}
