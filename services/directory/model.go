package directory

import "time"

// Patient is a clinic patient reachable for campaigns.
type Patient struct {
	ID        string    `gorm:"column:patient_id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Phone     string    `gorm:"column:phone" json:"phone"`
	Email     string    `gorm:"column:email" json:"email"`
	Address   string    `gorm:"column:address" json:"address"`
	BirthDate string    `gorm:"column:birth_date" json:"birth_date"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Doctor struct {
	ID             string    `gorm:"column:doctor_id;primaryKey" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Specialization string    `gorm:"column:specialization" json:"specialization"`
	Phone          string    `gorm:"column:phone" json:"phone"`
	IsActive       bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Employee struct {
	ID        string    `gorm:"column:employee_id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Role      string    `gorm:"column:role" json:"role"`
	Phone     string    `gorm:"column:phone" json:"phone"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
