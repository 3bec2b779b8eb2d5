package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-adminplane/pkg/config"
	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestGuard(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Config{})

	cfg := &config.Config{}
	cfg.Guard.ExpiryMinutes = 30
	cfg.Guard.MaxAttempts = 3
	cfg.Guard.LockoutSeconds = 30

	return NewService(ServiceParams{
		Configs:  NewConfigStore(db),
		Sessions: NewMemorySessionStore(),
		Config:   cfg,
	})
}

func protectPage(t *testing.T, svc *Service, page string) {
	t.Helper()

	_, err := svc.UpdateConfig(context.Background(), UpdateConfigInput{
		CurrentPassword: defaultMasterPassword,
		ProtectedPages: map[string]ProtectedPage{
			page: {Enabled: true, DisplayName: page},
		},
	})
	require.NoError(t, err)
}

func admin() Caller {
	return Caller{UserID: "u1", Email: "admin@clinic.test", Role: "admin", Type: "staff"}
}

func TestUnprotectedPageAlwaysPasses(t *testing.T) {
	svc := newTestGuard(t)

	result, err := svc.Status(context.Background(), admin(), "reports")
	require.NoError(t, err)
	require.Equal(t, StateUnprotected, result.State)
}

func TestAccessDeniedWithoutPasswordPrompt(t *testing.T) {
	svc := newTestGuard(t)
	protectPage(t, svc, "vouchers")

	_, err := svc.UpdateConfig(context.Background(), UpdateConfigInput{
		CurrentPassword: defaultMasterPassword,
		AuthorizedRoles: []string{"admin"},
	})
	require.NoError(t, err)

	staff := admin()
	staff.Role = "staff"

	result, err := svc.Status(context.Background(), staff, "vouchers")
	require.NoError(t, err)
	require.Equal(t, StateAccessDenied, result.State)

	// Denied callers never reach the password check.
	_, err = svc.Authenticate(context.Background(), staff, AuthenticateInput{Page: "vouchers", Password: defaultMasterPassword})
	var base errutil.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusForbidden, base.Code)
}

func TestAuthenticateCreatesTimeBoxedSession(t *testing.T) {
	svc := newTestGuard(t)
	protectPage(t, svc, "vouchers")

	start := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	result, err := svc.Authenticate(context.Background(), admin(), AuthenticateInput{Page: "vouchers", Password: defaultMasterPassword})
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, result.State)
	require.Equal(t, start.Add(30*time.Minute), result.Expiry)
}

func TestSessionExpiryWindow(t *testing.T) {
	svc := newTestGuard(t)
	protectPage(t, svc, "vouchers")

	start := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	_, err := svc.Authenticate(context.Background(), admin(), AuthenticateInput{Page: "vouchers", Password: defaultMasterPassword})
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(29 * time.Minute) }
	result, err := svc.Status(context.Background(), admin(), "vouchers")
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, result.State)

	svc.now = func() time.Time { return start.Add(31 * time.Minute) }
	result, err = svc.Status(context.Background(), admin(), "vouchers")
	require.NoError(t, err)
	require.Equal(t, StateUnauthenticated, result.State)
}

func TestSessionBoundToIdentity(t *testing.T) {
	svc := newTestGuard(t)
	protectPage(t, svc, "vouchers")

	_, err := svc.Authenticate(context.Background(), admin(), AuthenticateInput{Page: "vouchers", Password: defaultMasterPassword})
	require.NoError(t, err)

	other := admin()
	other.Email = "other@clinic.test"

	result, err := svc.Status(context.Background(), other, "vouchers")
	require.NoError(t, err)
	require.Equal(t, StateUnauthenticated, result.State)
}

func TestWrongPasswordLockout(t *testing.T) {
	svc := newTestGuard(t)
	protectPage(t, svc, "vouchers")

	wrong := AuthenticateInput{Page: "vouchers", Password: "nope"}

	var base errutil.BaseError

	_, err := svc.Authenticate(context.Background(), admin(), wrong)
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusUnauthorized, base.Code)

	_, err = svc.Authenticate(context.Background(), admin(), wrong)
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusUnauthorized, base.Code)

	// Third failure trips the lockout.
	_, err = svc.Authenticate(context.Background(), admin(), wrong)
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusTooManyRequests, base.Code)

	// Even the right password is refused while locked.
	_, err = svc.Authenticate(context.Background(), admin(), AuthenticateInput{Page: "vouchers", Password: defaultMasterPassword})
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusTooManyRequests, base.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	svc := newTestGuard(t)
	protectPage(t, svc, "vouchers")

	_, err := svc.Authenticate(context.Background(), admin(), AuthenticateInput{Page: "vouchers", Password: defaultMasterPassword})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), admin(), "vouchers"))

	result, err := svc.Status(context.Background(), admin(), "vouchers")
	require.NoError(t, err)
	require.Equal(t, StateUnauthenticated, result.State)
}

func TestUpdateConfigRequiresCurrentPassword(t *testing.T) {
	svc := newTestGuard(t)

	_, err := svc.UpdateConfig(context.Background(), UpdateConfigInput{
		CurrentPassword: "wrong",
		MasterPassword:  "hijacked",
	})
	var base errutil.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, errutil.StatusUnauthorized, base.Code)
}

func TestUpdateConfigSlugsPageNames(t *testing.T) {
	svc := newTestGuard(t)

	settings, err := svc.UpdateConfig(context.Background(), UpdateConfigInput{
		CurrentPassword: defaultMasterPassword,
		ProtectedPages: map[string]ProtectedPage{
			"Promo Images": {Enabled: true, DisplayName: "Promo Images"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, settings.ProtectedPages, "promo-images")
}

func TestEvaluateUnsetRoleListsAllowEveryone(t *testing.T) {
	settings := Settings{
		ProtectedPages: map[string]ProtectedPage{"vouchers": {Enabled: true}},
	}

	state := Evaluate(settings, Caller{UserID: "u1", Role: "anything"}, "vouchers", nil, time.Now())
	require.Equal(t, StateUnauthenticated, state)
}
