package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/services/attendance"
	"clinic-adminplane/services/clinic"
	"clinic-adminplane/services/directory"
	"clinic-adminplane/services/guard"
	"clinic-adminplane/services/promo"
	"clinic-adminplane/services/testutil"
	"clinic-adminplane/services/voucher"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type cleanerStub struct {
	removed int64
}

func (c *cleanerStub) Cleanup(context.Context) (int64, error) {
	return c.removed, nil
}

func newTestSystem(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t,
		&User{},
		&clinic.Settings{}, &guard.Config{},
		&voucher.Voucher{}, &voucher.VoucherUsage{}, &voucher.PatientVoucherCode{},
		&attendance.Record{},
		&promo.Image{}, &promo.History{},
		&directory.Patient{}, &directory.Doctor{}, &directory.Employee{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node, Vouchers: &cleanerStub{removed: 2}})
}

func TestCheckSetupOnEmptyDatabase(t *testing.T) {
	svc := newTestSystem(t)

	status, err := svc.CheckSetup(context.Background())
	require.NoError(t, err)
	require.False(t, status.Complete())
	require.False(t, status.ClinicConfigured)
	require.False(t, status.GuardConfigured)
	require.False(t, status.AdminExists)
}

func TestQuickSetupIsIdempotent(t *testing.T) {
	svc := newTestSystem(t)

	status, err := svc.QuickSetup(context.Background())
	require.NoError(t, err)
	require.True(t, status.Complete())

	// A second run changes nothing.
	status, err = svc.QuickSetup(context.Background())
	require.NoError(t, err)
	require.True(t, status.Complete())

	var users []User
	require.NoError(t, svc.db.Find(&users).Error)
	require.Len(t, users, 1)
	require.Equal(t, seedAdminEmail, users[0].Email)
}

func TestMakeAdminPromotesExistingUser(t *testing.T) {
	svc := newTestSystem(t)

	existing := User{ID: "u1", Email: "staff@adeka.clinic", Role: "staff"}
	require.NoError(t, svc.db.Create(&existing).Error)

	user, err := svc.MakeAdmin(context.Background(), "Staff@Adeka.Clinic ")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, RoleAdmin, user.Role)
}

func TestMakeAdminCreatesMissingUser(t *testing.T) {
	svc := newTestSystem(t)

	user, err := svc.MakeAdmin(context.Background(), "new@adeka.clinic")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, user.Role)
	require.NotEmpty(t, user.ID)
}

func TestMakeAdminRejectsBadEmail(t *testing.T) {
	svc := newTestSystem(t)

	_, err := svc.MakeAdmin(context.Background(), "not-an-email")
	require.Error(t, err)
}

func TestCleanupCorruptSweepsHistory(t *testing.T) {
	svc := newTestSystem(t)

	good := promo.History{ID: "h1", Title: "ok", RecipientCount: 2, SentAt: time.Now()}
	corrupt := promo.History{ID: "h2", Title: "undefined", RecipientCount: 0}
	require.NoError(t, svc.db.Create(&good).Error)
	require.NoError(t, svc.db.Create(&corrupt).Error)

	report, err := svc.CleanupCorrupt(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), report.VouchersRemoved)
	require.Equal(t, int64(1), report.HistoryRemoved)

	var remaining []promo.History
	require.NoError(t, svc.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "h1", remaining[0].ID)
}

func TestNuclearCleanupRequiresAdmin(t *testing.T) {
	svc := newTestSystem(t)

	_, err := svc.NuclearCleanup(context.Background(), "staff")
	var base errutil.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusForbidden, base.Code)
}

func TestNuclearCleanupWipesOperationalData(t *testing.T) {
	svc := newTestSystem(t)

	require.NoError(t, svc.db.Create(&directory.Patient{ID: "p1", Name: "Budi"}).Error)
	require.NoError(t, svc.db.Create(&voucher.Voucher{
		ID: "v1", Code: "DENTAL7X2K", Title: "promo",
		DiscountType: voucher.DiscountFixed, DiscountValue: 1000,
		ExpiryDate: time.Now().Add(time.Hour),
	}).Error)
	require.NoError(t, svc.db.Create(&User{ID: "u1", Email: "admin@adeka.clinic", Role: RoleAdmin}).Error)

	removed, err := svc.NuclearCleanup(context.Background(), RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed["patients"])
	require.Equal(t, int64(1), removed["vouchers"])

	// Users survive the wipe.
	var users []User
	require.NoError(t, svc.db.Find(&users).Error)
	require.Len(t, users, 1)
}
