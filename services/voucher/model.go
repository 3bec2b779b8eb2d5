package voucher

import (
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

type TransactionType string

const (
	TransactionTreatment TransactionType = "treatment"
	TransactionSale      TransactionType = "sale"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTreatment || t == TransactionSale
}

// Voucher is a discount definition. Discount terms are never updated in
// place; after creation the only mutations are the usage-count increment on
// redemption, the active flag, and deletion.
type Voucher struct {
	ID            string       `gorm:"column:voucher_id;primaryKey" json:"id"`
	Code          string       `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Title         string       `gorm:"column:title;not null" json:"title"`
	Description   string       `gorm:"column:description" json:"description"`
	DiscountType  DiscountType `gorm:"column:discount_type;not null" json:"discount_type"`
	DiscountValue float64      `gorm:"column:discount_value;not null;default:0" json:"discount_value"`
	MaxDiscount   float64      `gorm:"column:max_discount;default:0" json:"max_discount"`
	MinPurchase   float64      `gorm:"column:min_purchase;default:0" json:"min_purchase"`
	ExpiryDate    time.Time    `gorm:"column:expiry_date" json:"expiry_date"`
	UsageLimit    int          `gorm:"column:usage_limit;default:0" json:"usage_limit"`
	UsageCount    int          `gorm:"column:usage_count;default:0" json:"usage_count"`
	IsActive      bool         `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedBy     string       `gorm:"column:created_by" json:"created_by"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// VoucherUsage is written exactly once per redemption and never mutated.
type VoucherUsage struct {
	ID              string          `gorm:"column:usage_id;primaryKey" json:"id"`
	VoucherID       string          `gorm:"column:voucher_id;index;not null" json:"voucher_id"`
	VoucherCode     string          `gorm:"column:voucher_code;not null" json:"voucher_code"`
	PatientID       string          `gorm:"column:patient_id;index" json:"patient_id"`
	PatientName     string          `gorm:"column:patient_name" json:"patient_name"`
	OriginalAmount  float64         `gorm:"column:original_amount;not null" json:"original_amount"`
	DiscountAmount  float64         `gorm:"column:discount_amount;not null" json:"discount_amount"`
	FinalAmount     float64         `gorm:"column:final_amount;not null" json:"final_amount"`
	TransactionType TransactionType `gorm:"column:transaction_type" json:"transaction_type"`
	TransactionID   string          `gorm:"column:transaction_id" json:"transaction_id"`
	UsedBy          string          `gorm:"column:used_by" json:"used_by"`
	UsedAt          time.Time       `gorm:"column:used_at;autoCreateTime" json:"used_at"`
}

// PatientVoucherCode is a per-patient unique code minted from a base voucher
// for campaign distribution.
type PatientVoucherCode struct {
	ID          string     `gorm:"column:patient_code_id;primaryKey" json:"id"`
	VoucherID   string     `gorm:"column:voucher_id;index;not null" json:"voucher_id"`
	PatientID   string     `gorm:"column:patient_id;index;not null" json:"patient_id"`
	PatientName string     `gorm:"column:patient_name" json:"patient_name"`
	Code        string     `gorm:"column:code;uniqueIndex;not null" json:"code"`
	UsedAt      *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// Stats aggregates redemption activity for the dashboard and reports.
type Stats struct {
	TotalVouchers    int64                     `json:"total_vouchers"`
	ActiveVouchers   int64                     `json:"active_vouchers"`
	TotalRedemptions int64                     `json:"total_redemptions"`
	TotalDiscount    float64                   `json:"total_discount"`
	ByType           map[TransactionType]Usage `json:"by_type"`
}

type Usage struct {
	Count    int64   `json:"count"`
	Discount float64 `json:"discount"`
}
