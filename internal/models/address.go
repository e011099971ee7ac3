package models

// Address stores a delivery or billing address attached to a user profile.
type Address struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Label      string `gorm:"type:varchar(32);default:'home'" json:"label"`
	Name       string `gorm:"not null" json:"name"`
	Phone      string `gorm:"not null" json:"phone"`
	Line1      string `gorm:"not null" json:"line1"`
	Line2      string `json:"line2"`
	City       string `gorm:"not null" json:"city"`
	State      string `gorm:"not null" json:"state"`
	PostalCode string `gorm:"type:varchar(12);not null" json:"postal_code"`
	Country    string `gorm:"type:varchar(64);default:'India'" json:"country"`

	IsDefault bool `gorm:"default:false;index" json:"is_default"`
}
