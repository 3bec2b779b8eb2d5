package voucher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type seqStub struct {
	n int
}

func (s *seqStub) NextVoucherCode(ctx context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("DENTAL%04d", s.n), nil
}

func (s *seqStub) NextPatientCode(ctx context.Context, baseCode string) (string, error) {
	s.n++
	return fmt.Sprintf("%s-%04d", baseCode, s.n), nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Voucher{}, &VoucherUsage{}, &PatientVoucherCode{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node, Seq: &seqStub{}})
}

func validInput() CreateInput {
	return CreateInput{
		Title:         "Scaling Promo",
		DiscountType:  DiscountPercentage,
		DiscountValue: 20,
		ExpiryDate:    time.Now().Add(30 * 24 * time.Hour),
		CreatedBy:     "drg. Sari",
	}
}

func TestCreateGeneratesCode(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "DENTAL0001", v.Code)
	require.True(t, v.IsActive)
}

func TestCreateValidationFailsBeforeWrite(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing title", func(in *CreateInput) { in.Title = "" }},
		{"zero discount", func(in *CreateInput) { in.DiscountValue = 0 }},
		{"negative discount", func(in *CreateInput) { in.DiscountValue = -5 }},
		{"missing expiry", func(in *CreateInput) { in.ExpiryDate = time.Time{} }},
		{"negative usage limit", func(in *CreateInput) { in.UsageLimit = -1 }},
		{"bad discount type", func(in *CreateInput) { in.DiscountType = "bogo" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			require.Error(t, err)

			var base errutil.BaseError
			require.True(t, errors.As(err, &base))
			require.Equal(t, errutil.StatusValidationFailed, base.Code)
		})
	}

	vouchers, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, vouchers)
}

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.Code = "DENTALSAME"
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), in)
	require.Error(t, err)

	var base errutil.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusConflict, base.Code)

	vouchers, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
}

func TestCreateAcceptsPercentageAbove100(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.DiscountValue = 150

	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestValidateExpiredRegardlessOfAmount(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.ExpiryDate = time.Now().Add(-24 * time.Hour)
	v, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	for _, amount := range []float64{0, 50000, 10000000} {
		result, err := svc.Validate(context.Background(), ValidateInput{Code: v.Code, Amount: amount})
		require.NoError(t, err)
		require.False(t, result.Valid)
		require.Equal(t, ReasonExpired, result.Reason)
	}
}

func TestValidateBelowMinimumPurchase(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.DiscountType = DiscountFixed
	in.DiscountValue = 50000
	in.MinPurchase = 100000
	v, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	result, err := svc.Validate(context.Background(), ValidateInput{Code: v.Code, Amount: 80000})
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, ReasonBelowMinimumPurchase, result.Reason)
}

func TestValidateRejectionOrder(t *testing.T) {
	svc := newTestService(t)

	// Inactive, expired and below minimum at once: inactive wins.
	in := validInput()
	in.MinPurchase = 100000
	in.ExpiryDate = time.Now().Add(-time.Hour)
	v, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), v.ID, false)
	require.NoError(t, err)

	result, err := svc.Validate(context.Background(), ValidateInput{Code: v.Code, Amount: 1000})
	require.NoError(t, err)
	require.Equal(t, ReasonInactive, result.Reason)
}

func TestValidateUnknownCode(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Validate(context.Background(), ValidateInput{Code: "NOPE", Amount: 100})
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, ReasonNotFound, result.Reason)
}

func TestValidateComputesClampedDiscount(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.DiscountValue = 150 // malformed >100%, clamped at redemption
	v, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	result, err := svc.Validate(context.Background(), ValidateInput{Code: v.Code, Amount: 100000})
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, float64(100000), result.DiscountAmount)
	require.Equal(t, float64(0), result.FinalAmount)
}

func TestRedeemRecordsUsageAndIncrementsCount(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	usage, err := svc.Redeem(context.Background(), RedeemInput{
		Code:            v.Code,
		Amount:          200000,
		PatientID:       "pat_1",
		PatientName:     "Budi",
		TransactionType: TransactionTreatment,
		UsedBy:          "admin",
	})
	require.NoError(t, err)
	require.Equal(t, float64(40000), usage.DiscountAmount)
	require.Equal(t, float64(160000), usage.FinalAmount)

	stored, err := svc.Get(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.UsageCount)
}

func TestRedeemRespectsUsageLimit(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.UsageLimit = 2
	v, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	redeem := func() error {
		_, err := svc.Redeem(context.Background(), RedeemInput{
			Code:            v.Code,
			Amount:          100000,
			PatientID:       "pat_1",
			TransactionType: TransactionSale,
		})
		return err
	}

	require.NoError(t, redeem())
	require.NoError(t, redeem())

	err = redeem()
	require.Error(t, err)

	stored, err := svc.Get(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.UsageCount)
	require.LessOrEqual(t, stored.UsageCount, stored.UsageLimit)
}

func TestRedeemUnlimitedWhenLimitZero(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.Redeem(context.Background(), RedeemInput{
			Code:            v.Code,
			Amount:          100000,
			PatientID:       fmt.Sprintf("pat_%d", i),
			TransactionType: TransactionSale,
		})
		require.NoError(t, err)
	}
}

func TestStatsBreakdownByTransactionType(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), RedeemInput{Code: v.Code, Amount: 100000, PatientID: "p1", TransactionType: TransactionTreatment})
	require.NoError(t, err)
	_, err = svc.Redeem(context.Background(), RedeemInput{Code: v.Code, Amount: 50000, PatientID: "p2", TransactionType: TransactionSale})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.ActiveVouchers)
	require.Equal(t, int64(2), stats.TotalRedemptions)
	require.Equal(t, float64(30000), stats.TotalDiscount)
	require.Equal(t, int64(1), stats.ByType[TransactionTreatment].Count)
	require.Equal(t, int64(1), stats.ByType[TransactionSale].Count)
}

func TestGeneratePerPatientKeepsInputOrder(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	patients := []PatientRef{
		{ID: "p1", Name: "Budi"},
		{ID: "p2", Name: "Sari"},
		{ID: "p3", Name: "Agus"},
	}

	codes, err := svc.GeneratePerPatient(context.Background(), v.ID, patients)
	require.NoError(t, err)
	require.Len(t, codes, 3)

	seen := map[string]struct{}{}
	for i, code := range codes {
		require.Equal(t, patients[i].ID, code.PatientID)
		require.Contains(t, code.Code, v.Code)
		_, dup := seen[code.Code]
		require.False(t, dup)
		seen[code.Code] = struct{}{}
	}
}

func TestDeleteWithUsagesRequiresForce(t *testing.T) {
	svc := newTestService(t)

	v, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), RedeemInput{Code: v.Code, Amount: 100000, PatientID: "p1", TransactionType: TransactionSale})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), v.ID, false, "admin")
	var base errutil.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusConflict, base.Code)

	err = svc.Delete(context.Background(), v.ID, true, "staff")
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusForbidden, base.Code)

	require.NoError(t, svc.Delete(context.Background(), v.ID, true, "admin"))

	_, err = svc.Get(context.Background(), v.ID)
	require.Error(t, err)
}

func TestCleanupRemovesOnlyCorruptRecords(t *testing.T) {
	svc := newTestService(t)

	good, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	// Written behind the service's back, the way a broken client would.
	corrupt := &Voucher{
		ID:            "corrupt_1",
		Code:          "CORRUPT",
		Title:         "broken",
		DiscountType:  DiscountFixed,
		DiscountValue: 1000,
		ExpiryDate:    time.Now().Add(time.Hour),
	}
	require.NoError(t, svc.db.Create(corrupt).Error)

	removed, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = svc.Get(context.Background(), good.ID)
	require.NoError(t, err)
}
