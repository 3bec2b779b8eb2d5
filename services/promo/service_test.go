package promo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-adminplane/pkg/config"
	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/services/testutil"
	"clinic-adminplane/services/voucher"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
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

type voucherStub struct {
	n int
}

func (v *voucherStub) Get(_ context.Context, id string) (*voucher.Voucher, error) {
	return &voucher.Voucher{ID: id, Code: "DENTAL7X2K"}, nil
}

func (v *voucherStub) GeneratePerPatient(_ context.Context, _ string, patients []voucher.PatientRef) ([]voucher.PatientVoucherCode, error) {
	codes := make([]voucher.PatientVoucherCode, 0, len(patients))
	for _, p := range patients {
		v.n++
		codes = append(codes, voucher.PatientVoucherCode{
			PatientID: p.ID,
			Code:      fmt.Sprintf("DENTAL7X2K-%04d", v.n),
		})
	}
	return codes, nil
}

func newTestPromo(t *testing.T) (*Service, *memStore) {
	t.Helper()

	db := testutil.NewTestDB(t, &Image{}, &History{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Upload.MaxImageBytes = 5 * 1024 * 1024
	cfg.WhatsApp.BaseURL = "https://wa.me"
	cfg.WhatsApp.SendDelay = 0

	store := newMemStore()
	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Store:    store,
		Vouchers: &voucherStub{},
		Config:   cfg,
	})
	return svc, store
}

func uploadInput(contentType string, size int64) UploadInput {
	return UploadInput{
		Title:       "Promo Scaling",
		FileName:    "promo.jpg",
		ContentType: contentType,
		Size:        size,
		Body:        bytes.NewReader(make([]byte, int(size))),
	}
}

func TestUploadImageStoresObjectAndRow(t *testing.T) {
	svc, store := newTestPromo(t)

	img, err := svc.UploadImage(context.Background(), uploadInput("image/jpeg", 1024))
	require.NoError(t, err)
	require.Contains(t, img.URL, "promo/")
	require.Contains(t, store.objects, img.ObjectKey)

	images, err := svc.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
}

func TestUploadImageRejectsUnsupportedType(t *testing.T) {
	svc, _ := newTestPromo(t)

	_, err := svc.UploadImage(context.Background(), uploadInput("image/gif", 1024))
	var base errutil.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusUnsupportedMediaType, base.Code)
}

func TestUploadImageRejectsOversize(t *testing.T) {
	svc, _ := newTestPromo(t)

	_, err := svc.UploadImage(context.Background(), uploadInput("image/png", 6*1024*1024))
	require.Error(t, err)
}

func TestDeleteImageRemovesObject(t *testing.T) {
	svc, store := newTestPromo(t)

	img, err := svc.UploadImage(context.Background(), uploadInput("image/jpeg", 1024))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteImage(context.Background(), img.ID))
	require.NotContains(t, store.objects, img.ObjectKey)

	images, err := svc.ListImages(context.Background())
	require.NoError(t, err)
	require.Empty(t, images)
}

func sendInput() SendInput {
	return SendInput{
		Type:    CampaignImage,
		Title:   "Promo Scaling Agustus",
		Message: "Halo {name}, ada promo untukmu",
		Patients: []voucher.PatientRef{
			{ID: "p1", Name: "Budi"},
			{ID: "p2", Name: "Sari"},
		},
		Phones: map[string]string{
			"p1": "081234567890",
			"p2": "+62 812-0000-1111",
		},
		SentBy: "admin",
	}
}

func TestSendCampaignBuildsNormalizedLinks(t *testing.T) {
	svc, _ := newTestPromo(t)

	result, err := svc.SendCampaign(context.Background(), sendInput())
	require.NoError(t, err)
	require.Equal(t, 2, result.SentCount)
	require.Len(t, result.Recipients, 2)

	require.Equal(t, "6281234567890", result.Recipients[0].Phone)
	require.Contains(t, result.Recipients[0].Link, "https://wa.me/6281234567890?text=")
	require.Contains(t, result.Recipients[0].Link, "Budi")
	require.Equal(t, "6281200001111", result.Recipients[1].Phone)
}

func TestSendCampaignRecordsPerRecipientFailures(t *testing.T) {
	svc, _ := newTestPromo(t)

	in := sendInput()
	in.Phones["p1"] = "not-a-phone"

	result, err := svc.SendCampaign(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 1, result.SentCount)
	require.NotEmpty(t, result.Recipients[0].Error)
	require.Empty(t, result.Recipients[1].Error)
}

func TestSendCampaignVoucherTypedUsesPerPatientCodes(t *testing.T) {
	svc, _ := newTestPromo(t)

	in := sendInput()
	in.Type = CampaignVoucher
	in.VoucherID = "v1"
	in.Message = "Halo {name}, pakai kode {code}"

	result, err := svc.SendCampaign(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, "DENTAL7X2K-0001", result.Recipients[0].Code)
	require.Equal(t, "DENTAL7X2K-0002", result.Recipients[1].Code)
	require.NotEqual(t, result.Recipients[0].Code, result.Recipients[1].Code)
	require.Contains(t, result.Recipients[0].Link, "DENTAL7X2K-0001")
}

func TestSendCampaignWritesSingleHistoryRow(t *testing.T) {
	svc, _ := newTestPromo(t)

	result, err := svc.SendCampaign(context.Background(), sendInput())
	require.NoError(t, err)

	entries, err := svc.ListHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, result.HistoryID, entries[0].ID)
	require.Equal(t, 2, entries[0].RecipientCount)

	recipients, err := entries[0].DecodedRecipients()
	require.NoError(t, err)
	require.Len(t, recipients, 2)
}

func TestSendCampaignValidation(t *testing.T) {
	svc, _ := newTestPromo(t)

	cases := []struct {
		name   string
		mutate func(*SendInput)
	}{
		{"missing title", func(in *SendInput) { in.Title = "" }},
		{"bad type", func(in *SendInput) { in.Type = "sms" }},
		{"no recipients", func(in *SendInput) { in.Patients = nil }},
		{"voucher without id", func(in *SendInput) { in.Type = CampaignVoucher; in.VoucherID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := sendInput()
			tc.mutate(&in)

			_, err := svc.SendCampaign(context.Background(), in)
			require.Error(t, err)
		})
	}

	entries, err := svc.ListHistory(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestListHistoryFiltersCorruptRows(t *testing.T) {
	svc, _ := newTestPromo(t)

	_, err := svc.SendCampaign(context.Background(), sendInput())
	require.NoError(t, err)

	// Written behind the service's back, the way a broken client would.
	corrupt := &History{ID: "h_corrupt", Type: CampaignImage, Title: "undefined", RecipientCount: 0}
	require.NoError(t, svc.db.Create(corrupt).Error)

	entries, err := svc.ListHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotEqual(t, "h_corrupt", entries[0].ID)
}

func TestSanitizeHistoryIsPure(t *testing.T) {
	now := time.Now()
	entries := []History{
		{Title: "ok", RecipientCount: 2, SentAt: now},
		{Title: "", RecipientCount: 2, SentAt: now},
		{Title: "also ok", RecipientCount: 1, SentAt: now},
	}

	once := SanitizeHistory(entries)
	require.Len(t, once, 2)
	require.Equal(t, once, SanitizeHistory(once))
	require.Equal(t, "ok", once[0].Title)
	require.Equal(t, "also ok", once[1].Title)
}
