package clinic

import (
	"time"

	"gorm.io/datatypes"
)

// Settings is the clinic branding configuration, stored as a single row.
// Theme holds the color variables the front end applies as CSS custom
// properties.
type Settings struct {
	ID        int            `gorm:"column:settings_id;primaryKey" json:"-"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Tagline   string         `gorm:"column:tagline" json:"tagline"`
	Address   string         `gorm:"column:address" json:"address"`
	Phone     string         `gorm:"column:phone" json:"phone"`
	LogoURL   string         `gorm:"column:logo_url" json:"logo_url"`
	Theme     datatypes.JSON `gorm:"column:theme" json:"theme"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Settings) TableName() string { return "clinic_settings" }
