package models

import (
	"time"

	"gorm.io/datatypes"
)

// HoroscopeEntry is one cached horoscope: the content served for a zodiac
// sign over a single calendar bucket of a period.
//
// The (sign, period, period_key) triple is the natural key; writes go
// through an upsert so at most one row exists per triple.
type HoroscopeEntry struct {
	BaseModel

	Sign      string `gorm:"type:varchar(16);not null;uniqueIndex:idx_horoscope_nk,priority:1" json:"sign"`
	Period    string `gorm:"type:varchar(8);not null;uniqueIndex:idx_horoscope_nk,priority:2" json:"period"`
	PeriodKey string `gorm:"type:varchar(10);not null;uniqueIndex:idx_horoscope_nk,priority:3" json:"period_key"`

	// RawContent is the astrology engine payload, stored as-is.
	RawContent datatypes.JSON `gorm:"not null" json:"raw_content"`

	// EnrichedNarrative is the optional AI narrative. Null when enrichment
	// failed or was skipped; the entry is still servable.
	EnrichedNarrative datatypes.JSON `json:"enriched_narrative,omitempty"`

	GeneratedAt time.Time `gorm:"not null" json:"generated_at"`
	ValidUntil  time.Time `gorm:"not null;index" json:"valid_until"`

	// No column default here: gorm omits zero-valued fields that carry one
	// from the INSERT, which would turn an IsActive=false upsert into true.
	// Writers set the flag explicitly instead.
	IsActive bool `gorm:"not null;index" json:"is_active"`
}
