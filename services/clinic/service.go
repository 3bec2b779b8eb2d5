package clinic

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
	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/pkg/objstore"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultClinicName = "Klinik Gigi"

var allowedLogoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type Service struct {
	db    *gorm.DB
	store objstore.Store
	cfg   *config.Config
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Store  objstore.Store
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB, store: p.Store, cfg: p.Config}
}

// Get returns the settings row, seeding a default one on first use.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	var settings Settings
	err := s.db.WithContext(ctx).First(&settings, "settings_id = ?", 1).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.Internal("failed to load clinic settings", errutil.WithErr(err))
	}

	settings = Settings{ID: 1, Name: defaultClinicName}
	if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, errutil.Internal("failed to seed clinic settings", errutil.WithErr(err))
	}
	return &settings, nil
}

type UpdateInput struct {
	Name    string            `json:"name"`
	Tagline string            `json:"tagline"`
	Address string            `json:"address"`
	Phone   string            `json:"phone"`
	Theme   map[string]string `json:"theme"`
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (*Settings, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errutil.ValidationFailed("name is required")
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	settings.Name = in.Name
	settings.Tagline = in.Tagline
	settings.Address = in.Address
	settings.Phone = in.Phone
	if in.Theme != nil {
		raw, err := json.Marshal(in.Theme)
		if err != nil {
			return nil, errutil.Internal("failed to encode theme", errutil.WithErr(err))
		}
		settings.Theme = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, errutil.Internal("failed to save clinic settings", errutil.WithErr(err))
	}

	zap.L().Info("clinic settings updated", zap.String("name", settings.Name))
	return settings, nil
}

type LogoInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadLogo stores a new logo and points the settings row at it.
func (s *Service) UploadLogo(ctx context.Context, in LogoInput) (*Settings, error) {
	ext, ok := allowedLogoTypes[in.ContentType]
	if !ok {
		return nil, errutil.UnsupportedMediaType("only image/jpeg and image/png are accepted")
	}
	if in.Size <= 0 {
		return nil, errutil.ValidationFailed("logo is empty")
	}
	if in.Size > s.cfg.Upload.MaxImageBytes {
		return nil, errutil.ValidationFailed(fmt.Sprintf("logo exceeds %d bytes", s.cfg.Upload.MaxImageBytes))
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := path.Join("branding", fmt.Sprintf("logo-%d%s", time.Now().UnixNano(), ext))
	url, err := s.store.Put(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, errutil.Internal("failed to store logo", errutil.WithErr(err))
	}

	settings.LogoURL = url
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, errutil.Internal("failed to save clinic settings", errutil.WithErr(err))
	}
	return settings, nil
}
