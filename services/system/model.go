package system

import "time"

// User is an admin-console account. Only the role matters to this
// service; authentication itself lives at the gateway.
type User struct {
	ID        string    `gorm:"column:user_id;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"column:name" json:"name"`
	Role      string    `gorm:"column:role;default:staff" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
