package guard

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ProtectedPage is one page entry in the guard configuration.
type ProtectedPage struct {
	Enabled     bool   `json:"enabled"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Config is the durable guard configuration, stored as a single row.
type Config struct {
	ID                  int            `gorm:"column:config_id;primaryKey" json:"-"`
	MasterPassword      string         `gorm:"column:master_password;not null" json:"-"`
	ExpiryMinutes       int            `gorm:"column:expiry_minutes;not null" json:"expiry_minutes"`
	ProtectedPages      datatypes.JSON `gorm:"column:protected_pages" json:"protected_pages"`
	AuthorizedRoles     datatypes.JSON `gorm:"column:authorized_roles" json:"authorized_roles"`
	AuthorizedUserTypes datatypes.JSON `gorm:"column:authorized_user_types" json:"authorized_user_types"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Config) TableName() string { return "guard_configs" }

// Settings is the decoded view of Config used by the state machine and
// the transport layer. The master password never appears here.
type Settings struct {
	ExpiryMinutes       int                      `json:"expiry_minutes"`
	ProtectedPages      map[string]ProtectedPage `json:"protected_pages"`
	AuthorizedRoles     []string                 `json:"authorized_roles"`
	AuthorizedUserTypes []string                 `json:"authorized_user_types"`
}

func jsonMarshal(v interface{}) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	return datatypes.JSON(raw), err
}

func (c *Config) Settings() (Settings, error) {
	s := Settings{
		ExpiryMinutes:  c.ExpiryMinutes,
		ProtectedPages: map[string]ProtectedPage{},
	}
	if len(c.ProtectedPages) > 0 {
		if err := json.Unmarshal(c.ProtectedPages, &s.ProtectedPages); err != nil {
			return Settings{}, err
		}
	}
	if len(c.AuthorizedRoles) > 0 {
		if err := json.Unmarshal(c.AuthorizedRoles, &s.AuthorizedRoles); err != nil {
			return Settings{}, err
		}
	}
	if len(c.AuthorizedUserTypes) > 0 {
		if err := json.Unmarshal(c.AuthorizedUserTypes, &s.AuthorizedUserTypes); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

// Session is one authenticated (user, page) overlay session. Sessions are
// ephemeral and live in the session store with a TTL matching Expiry.
type Session struct {
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	UserRole  string    `json:"user_role"`
	UserType  string    `json:"user_type"`
	Page      string    `json:"page"`
	Expiry    time.Time `json:"expiry"`
	CreatedAt time.Time `json:"created_at"`
}
