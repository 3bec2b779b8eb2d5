package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"clinic-adminplane/pkg/config"
	"clinic-adminplane/pkg/dispatch"
	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/pkg/objstore"
	"clinic-adminplane/pkg/wa"
	"clinic-adminplane/services/voucher"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// VoucherCodes is the slice of the voucher engine campaigns need: minting
// one unique code per patient from a base voucher.
type VoucherCodes interface {
	Get(ctx context.Context, id string) (*voucher.Voucher, error)
	GeneratePerPatient(ctx context.Context, voucherID string, patients []voucher.PatientRef) ([]voucher.PatientVoucherCode, error)
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	store    objstore.Store
	vouchers VoucherCodes
	cfg      *config.Config
	dispatch *dispatch.Dispatcher
	now      func() time.Time
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Store    objstore.Store
	Vouchers VoucherCodes
	Config   *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		store:    p.Store,
		vouchers: p.Vouchers,
		cfg:      p.Config,
		dispatch: dispatch.New(p.Config.WhatsApp.SendDelay),
		now:      time.Now,
	}
}

type UploadInput struct {
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	UploadedBy  string
}

// UploadImage validates type and size before anything touches storage.
func (s *Service) UploadImage(ctx context.Context, in UploadInput) (*Image, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errutil.ValidationFailed("title is required")
	}

	ext, ok := allowedImageTypes[in.ContentType]
	if !ok {
		return nil, errutil.UnsupportedMediaType("only image/jpeg and image/png are accepted")
	}
	if in.Size <= 0 {
		return nil, errutil.ValidationFailed("image is empty")
	}
	if in.Size > s.cfg.Upload.MaxImageBytes {
		return nil, errutil.ValidationFailed(fmt.Sprintf("image exceeds %d bytes", s.cfg.Upload.MaxImageBytes))
	}

	id := s.node.Generate().String()
	key := path.Join("promo", fmt.Sprintf("%s-%s%s", id, slug.Make(in.Title), ext))

	url, err := s.store.Put(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, errutil.Internal("failed to store promo image", errutil.WithErr(err))
	}

	img := &Image{
		ID:          id,
		Title:       in.Title,
		FileName:    in.FileName,
		ObjectKey:   key,
		URL:         url,
		ContentType: in.ContentType,
		Size:        in.Size,
		UploadedBy:  in.UploadedBy,
	}
	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		// The object is already stored; drop it rather than leak it.
		_ = s.store.Remove(ctx, key)
		return nil, errutil.Internal("failed to record promo image", errutil.WithErr(err))
	}

	zap.L().Info("promo image uploaded", zap.String("image_id", img.ID), zap.Int64("size", img.Size))
	return img, nil
}

func (s *Service) ListImages(ctx context.Context) ([]Image, error) {
	var images []Image
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&images).Error; err != nil {
		return nil, errutil.Internal("failed to list promo images", errutil.WithErr(err))
	}
	return images, nil
}

func (s *Service) DeleteImage(ctx context.Context, id string) error {
	var img Image
	err := s.db.WithContext(ctx).First(&img, "image_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errutil.NotFound("promo image not found")
	}
	if err != nil {
		return errutil.Internal("failed to load promo image", errutil.WithErr(err))
	}

	if err := s.db.WithContext(ctx).Delete(&Image{}, "image_id = ?", id).Error; err != nil {
		return errutil.Internal("failed to delete promo image", errutil.WithErr(err))
	}
	if err := s.store.Remove(ctx, img.ObjectKey); err != nil {
		zap.L().Warn("failed to remove promo image object", zap.String("key", img.ObjectKey), zap.Error(err))
	}
	return nil
}

type SendInput struct {
	Type      CampaignType         `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	ImageID   string               `json:"image_id,omitempty"`
	VoucherID string               `json:"voucher_id,omitempty"`
	Patients  []voucher.PatientRef `json:"patients"`
	Phones    map[string]string    `json:"phones"`
	SentBy    string               `json:"sent_by"`
}

type CampaignResult struct {
	HistoryID  string      `json:"history_id"`
	Recipients []Recipient `json:"recipients"`
	SentCount  int         `json:"sent_count"`
}

// SendCampaign runs one outbound batch: normalize each phone, mint the
// per-patient voucher code when the campaign is voucher-typed, build one
// wa.me link per recipient and pace the sends sequentially. The history
// row is written once, after the whole batch, with per-recipient results.
func (s *Service) SendCampaign(ctx context.Context, in SendInput) (*CampaignResult, error) {
	var details []errutil.Detail
	if !in.Type.Valid() {
		details = append(details, errutil.Detail{Field: "type", Message: "must be image or voucher"})
	}
	if strings.TrimSpace(in.Title) == "" {
		details = append(details, errutil.Detail{Field: "title", Message: "title is required"})
	}
	if len(in.Patients) == 0 {
		details = append(details, errutil.Detail{Field: "patients", Message: "at least one recipient is required"})
	}
	if in.Type == CampaignVoucher && in.VoucherID == "" {
		details = append(details, errutil.Detail{Field: "voucher_id", Message: "voucher_id is required for voucher campaigns"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid campaign", errutil.WithDetails(details...))
	}

	var imageURL string
	if in.ImageID != "" {
		var img Image
		err := s.db.WithContext(ctx).First(&img, "image_id = ?", in.ImageID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("promo image not found")
		}
		if err != nil {
			return nil, errutil.Internal("failed to load promo image", errutil.WithErr(err))
		}
		imageURL = img.URL
	}

	var baseCode string
	codeByPatient := map[string]string{}
	if in.Type == CampaignVoucher {
		base, err := s.vouchers.Get(ctx, in.VoucherID)
		if err != nil {
			return nil, err
		}
		baseCode = base.Code

		codes, err := s.vouchers.GeneratePerPatient(ctx, in.VoucherID, in.Patients)
		if err != nil {
			return nil, err
		}
		for _, c := range codes {
			codeByPatient[c.PatientID] = c.Code
		}
	}

	recipients := make([]Recipient, len(in.Patients))
	items := make([]dispatch.Item, 0, len(in.Patients))
	for i, p := range in.Patients {
		i, p := i, p
		recipients[i] = Recipient{
			PatientID: p.ID,
			Name:      p.Name,
			Code:      codeByPatient[p.ID],
		}
		items = append(items, dispatch.Item{
			ID: p.ID,
			Run: func(ctx context.Context) error {
				phone, err := wa.NormalizePhone(in.Phones[p.ID])
				if err != nil {
					return err
				}
				recipients[i].Phone = phone
				recipients[i].Link = wa.BuildLink(s.cfg.WhatsApp.BaseURL, phone, s.personalize(in.Message, p.Name, recipients[i].Code))
				return nil
			},
		})
	}

	results := s.dispatch.Run(ctx, items)
	for i, r := range results {
		if r.Err != nil {
			recipients[i].Error = r.Err.Error()
		}
	}

	raw, err := json.Marshal(recipients)
	if err != nil {
		return nil, errutil.Internal("failed to encode recipients", errutil.WithErr(err))
	}

	history := &History{
		ID:             s.node.Generate().String(),
		Type:           in.Type,
		Title:          in.Title,
		RecipientCount: len(recipients),
		SentCount:      dispatch.Succeeded(results),
		Recipients:     datatypes.JSON(raw),
		ImageURL:       imageURL,
		VoucherCode:    baseCode,
		SentBy:         in.SentBy,
		SentAt:         s.now(),
	}
	if err := s.db.WithContext(ctx).Create(history).Error; err != nil {
		return nil, errutil.Internal("failed to log campaign", errutil.WithErr(err))
	}

	zap.L().Info("campaign sent",
		zap.String("history_id", history.ID),
		zap.String("type", string(in.Type)),
		zap.Int("recipients", history.RecipientCount),
		zap.Int("sent", history.SentCount),
	)

	return &CampaignResult{
		HistoryID:  history.ID,
		Recipients: recipients,
		SentCount:  history.SentCount,
	}, nil
}

// personalize substitutes the recipient placeholders in a message template.
func (s *Service) personalize(template, name, code string) string {
	msg := strings.ReplaceAll(template, "{name}", name)
	msg = strings.ReplaceAll(msg, "{code}", code)
	return msg
}

// ListHistory returns the campaign log, newest first, with corrupt rows
// filtered out.
func (s *Service) ListHistory(ctx context.Context) ([]History, error) {
	var entries []History
	if err := s.db.WithContext(ctx).Order("sent_at DESC").Find(&entries).Error; err != nil {
		return nil, errutil.Internal("failed to list promo history", errutil.WithErr(err))
	}
	return SanitizeHistory(entries), nil
}
