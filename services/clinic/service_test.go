package clinic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-adminplane/pkg/config"
	"clinic-adminplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func newTestClinic(t *testing.T) (*Service, *memStore) {
	t.Helper()

	db := testutil.NewTestDB(t, &Settings{})
	cfg := &config.Config{}
	cfg.Upload.MaxImageBytes = 5 * 1024 * 1024

	store := &memStore{objects: map[string][]byte{}}
	return NewService(ServiceParams{DB: db, Store: store, Config: cfg}), store
}

func TestGetSeedsDefaultSettings(t *testing.T) {
	svc, _ := newTestClinic(t)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaultClinicName, settings.Name)

	again, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, settings.ID, again.ID)
}

func TestUpdatePersistsTheme(t *testing.T) {
	svc, _ := newTestClinic(t)

	settings, err := svc.Update(context.Background(), UpdateInput{
		Name:    "Adeka Dental",
		Tagline: "Senyum Sehat",
		Theme:   map[string]string{"--primary": "#0ea5e9"},
	})
	require.NoError(t, err)
	require.Equal(t, "Adeka Dental", settings.Name)

	var theme map[string]string
	require.NoError(t, json.Unmarshal(settings.Theme, &theme))
	require.Equal(t, "#0ea5e9", theme["--primary"])
}

func TestUpdateRequiresName(t *testing.T) {
	svc, _ := newTestClinic(t)

	_, err := svc.Update(context.Background(), UpdateInput{Name: "  "})
	require.Error(t, err)
}

func TestUploadLogoStoresObject(t *testing.T) {
	svc, store := newTestClinic(t)

	settings, err := svc.UploadLogo(context.Background(), LogoInput{
		FileName:    "logo.png",
		ContentType: "image/png",
		Size:        512,
		Body:        bytes.NewReader(make([]byte, 512)),
	})
	require.NoError(t, err)
	require.Contains(t, settings.LogoURL, "branding/")
	require.Len(t, store.objects, 1)
}

func TestUploadLogoRejectsUnsupportedType(t *testing.T) {
	svc, _ := newTestClinic(t)

	_, err := svc.UploadLogo(context.Background(), LogoInput{
		ContentType: "image/svg+xml",
		Size:        512,
		Body:        bytes.NewReader(make([]byte, 512)),
	})
	require.Error(t, err)
}
