package promo

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type CampaignType string

const (
	CampaignImage   CampaignType = "image"
	CampaignVoucher CampaignType = "voucher"
)

func (t CampaignType) Valid() bool {
	return t == CampaignImage || t == CampaignVoucher
}

// Image is one uploaded promo image in the gallery.
type Image struct {
	ID          string    `gorm:"column:image_id;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	FileName    string    `gorm:"column:file_name" json:"file_name"`
	ObjectKey   string    `gorm:"column:object_key;not null" json:"-"`
	URL         string    `gorm:"column:url;not null" json:"url"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	Size        int64     `gorm:"column:size" json:"size"`
	UploadedBy  string    `gorm:"column:uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// Recipient is the per-patient outcome of one campaign send.
type Recipient struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Code      string `json:"code,omitempty"`
	Link      string `json:"link,omitempty"`
	Error     string `json:"error,omitempty"`
}

// History is the append-only log of outbound campaigns. One row is written
// per campaign after the whole batch finishes, never per message.
type History struct {
	ID             string         `gorm:"column:history_id;primaryKey" json:"id"`
	Type           CampaignType   `gorm:"column:type;not null" json:"type"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	RecipientCount int            `gorm:"column:recipient_count" json:"recipient_count"`
	SentCount      int            `gorm:"column:sent_count" json:"sent_count"`
	Recipients     datatypes.JSON `gorm:"column:recipients" json:"recipients"`
	ImageURL       string         `gorm:"column:image_url" json:"image_url,omitempty"`
	VoucherCode    string         `gorm:"column:voucher_code" json:"voucher_code,omitempty"`
	SentBy         string         `gorm:"column:sent_by" json:"sent_by"`
	SentAt         time.Time      `gorm:"column:sent_at;autoCreateTime" json:"sent_at"`
}

func (h *History) DecodedRecipients() ([]Recipient, error) {
	var out []Recipient
	if len(h.Recipients) == 0 {
		return out, nil
	}
	err := json.Unmarshal(h.Recipients, &out)
	return out, err
}

// IsCorruptHistory flags log rows that lost their identifying shape. The
// read side filters them out instead of failing the whole listing.
func IsCorruptHistory(h *History) bool {
	title := strings.TrimSpace(h.Title)
	if title == "" || strings.EqualFold(title, "undefined") || strings.EqualFold(title, "null") {
		return true
	}
	if h.SentAt.IsZero() {
		return true
	}
	if h.RecipientCount <= 0 {
		return true
	}
	return false
}

// SanitizeHistory drops corrupt rows, preserving order. Pure, so listing
// twice without mutations yields the same filtered set.
func SanitizeHistory(entries []History) []History {
	out := make([]History, 0, len(entries))
	for _, h := range entries {
		if IsCorruptHistory(&h) {
			continue
		}
		out = append(out, h)
	}
	return out
}
