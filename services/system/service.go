package system

import (
	"context"
	"errors"
	"strings"

	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/services/attendance"
	"clinic-adminplane/services/clinic"
	"clinic-adminplane/services/directory"
	"clinic-adminplane/services/guard"
	"clinic-adminplane/services/promo"
	"clinic-adminplane/services/voucher"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"

	seedClinicName = "Adeka Dental"
	seedAdminEmail = "admin@adeka.clinic"
)

// VoucherCleaner is the slice of the voucher engine the corrupt-data
// sweep needs.
type VoucherCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	vouchers VoucherCleaner
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Vouchers VoucherCleaner
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB, node: p.Node, vouchers: p.Vouchers}
}

type SetupStatus struct {
	ClinicConfigured bool `json:"clinic_configured"`
	GuardConfigured  bool `json:"guard_configured"`
	AdminExists      bool `json:"admin_exists"`
}

func (st SetupStatus) Complete() bool {
	return st.ClinicConfigured && st.GuardConfigured && st.AdminExists
}

// CheckSetup reports which pieces of first-run configuration exist.
func (s *Service) CheckSetup(ctx context.Context) (*SetupStatus, error) {
	var status SetupStatus

	var count int64
	if err := s.db.WithContext(ctx).Model(&clinic.Settings{}).Count(&count).Error; err != nil {
		return nil, errutil.Internal("failed to check clinic settings", errutil.WithErr(err))
	}
	status.ClinicConfigured = count > 0

	if err := s.db.WithContext(ctx).Model(&guard.Config{}).Count(&count).Error; err != nil {
		return nil, errutil.Internal("failed to check guard config", errutil.WithErr(err))
	}
	status.GuardConfigured = count > 0

	if err := s.db.WithContext(ctx).Model(&User{}).Where("role = ?", RoleAdmin).Count(&count).Error; err != nil {
		return nil, errutil.Internal("failed to check admin users", errutil.WithErr(err))
	}
	status.AdminExists = count > 0

	return &status, nil
}

// QuickSetup seeds the first-run configuration. Every step is FirstOrCreate,
// so running it again is a no-op.
func (s *Service) QuickSetup(ctx context.Context) (*SetupStatus, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(clinic.Settings{ID: 1}).
			Attrs(clinic.Settings{Name: seedClinicName, Tagline: "Senyum Sehat Keluarga"}).
			FirstOrCreate(&clinic.Settings{}).Error; err != nil {
			return err
		}

		if err := tx.Where(guard.Config{ID: 1}).
			Attrs(guard.Config{ExpiryMinutes: 30, MasterPassword: "dental-admin"}).
			FirstOrCreate(&guard.Config{}).Error; err != nil {
			return err
		}

		admin := User{
			ID:    s.node.Generate().String(),
			Email: seedAdminEmail,
			Name:  "Administrator",
			Role:  RoleAdmin,
		}
		if err := tx.Where(User{Email: seedAdminEmail}).
			Attrs(admin).
			FirstOrCreate(&User{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, errutil.Internal("quick setup failed", errutil.WithErr(err))
	}

	zap.L().Info("quick setup completed")
	return s.CheckSetup(ctx)
}

// MakeAdmin promotes an existing user, creating the account if it has
// never logged in.
func (s *Service) MakeAdmin(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errutil.ValidationFailed("a valid email is required")
	}

	var user User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = User{
			ID:    s.node.Generate().String(),
			Email: email,
			Role:  RoleAdmin,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, errutil.Internal("failed to create admin user", errutil.WithErr(err))
		}
		return &user, nil
	}
	if err != nil {
		return nil, errutil.Internal("failed to load user", errutil.WithErr(err))
	}

	user.Role = RoleAdmin
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, errutil.Internal("failed to promote user", errutil.WithErr(err))
	}

	zap.L().Info("user promoted to admin", zap.String("email", email))
	return &user, nil
}

type CleanupReport struct {
	VouchersRemoved int64 `json:"vouchers_removed"`
	HistoryRemoved  int64 `json:"history_removed"`
}

// CleanupCorrupt sweeps records that fail their shape invariants: corrupt
// vouchers via the voucher engine, corrupt promo history rows directly.
func (s *Service) CleanupCorrupt(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}

	removed, err := s.vouchers.Cleanup(ctx)
	if err != nil {
		return nil, err
	}
	report.VouchersRemoved = removed

	var entries []promo.History
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, errutil.Internal("failed to scan promo history", errutil.WithErr(err))
	}

	var corruptIDs []string
	for i := range entries {
		if promo.IsCorruptHistory(&entries[i]) {
			corruptIDs = append(corruptIDs, entries[i].ID)
		}
	}
	if len(corruptIDs) > 0 {
		result := s.db.WithContext(ctx).Delete(&promo.History{}, "history_id IN ?", corruptIDs)
		if result.Error != nil {
			return nil, errutil.Internal("failed to delete corrupt history", errutil.WithErr(result.Error))
		}
		report.HistoryRemoved = result.RowsAffected
	}

	zap.L().Info("corrupt data cleanup",
		zap.Int64("vouchers_removed", report.VouchersRemoved),
		zap.Int64("history_removed", report.HistoryRemoved),
	)
	return report, nil
}

// NuclearCleanup wipes all operational data. Settings and users survive;
// only an admin may trigger it.
func (s *Service) NuclearCleanup(ctx context.Context, role string) (map[string]int64, error) {
	if role != RoleAdmin {
		return nil, errutil.Forbidden("nuclear cleanup requires the admin role")
	}

	tables := []struct {
		name  string
		model interface{}
	}{
		{"voucher_usages", &voucher.VoucherUsage{}},
		{"patient_voucher_codes", &voucher.PatientVoucherCode{}},
		{"vouchers", &voucher.Voucher{}},
		{"attendance_records", &attendance.Record{}},
		{"promo_histories", &promo.History{}},
		{"promo_images", &promo.Image{}},
		{"patients", &directory.Patient{}},
		{"doctors", &directory.Doctor{}},
		{"employees", &directory.Employee{}},
	}

	removed := make(map[string]int64, len(tables))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			result := tx.Where("1 = 1").Delete(t.model)
			if result.Error != nil {
				return result.Error
			}
			removed[t.name] = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, errutil.Internal("nuclear cleanup failed", errutil.WithErr(err))
	}

	zap.L().Warn("nuclear cleanup executed", zap.Any("removed", removed))
	return removed, nil
}
