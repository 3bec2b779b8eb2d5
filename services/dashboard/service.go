package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinic-adminplane/pkg/config"
	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/services/attendance"
	"clinic-adminplane/services/directory"
	"clinic-adminplane/services/promo"
	"clinic-adminplane/services/voucher"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// The dashboard reads through these slices of the other services so tests
// can substitute slow or failing branches.
type VoucherStats interface {
	Stats(ctx context.Context) (*voucher.Stats, error)
}

type AttendanceStatus interface {
	Status(ctx context.Context, personType attendance.PersonType, date string) ([]attendance.PresenceStatus, error)
}

type PromoHistory interface {
	ListHistory(ctx context.Context) ([]promo.History, error)
}

type PatientDirectory interface {
	ListPatients(ctx context.Context, search string) ([]directory.Patient, error)
}

// Summary is the aggregated dashboard view. Branches that failed or timed
// out appear in Degraded and contribute their zero value instead of
// failing the whole response.
type Summary struct {
	Vouchers         *voucher.Stats `json:"vouchers,omitempty"`
	DoctorsPresent   int            `json:"doctors_present"`
	EmployeesPresent int            `json:"employees_present"`
	TotalPatients    int            `json:"total_patients"`
	CampaignsSent    int            `json:"campaigns_sent"`
	Degraded         []string       `json:"degraded,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

type Service struct {
	db         *gorm.DB
	vouchers   VoucherStats
	attendance AttendanceStatus
	promos     PromoHistory
	patients   PatientDirectory
	timeout    time.Duration
	now        func() time.Time
}

type ServiceParams struct {
	fx.In
	DB         *gorm.DB
	Vouchers   VoucherStats
	Attendance AttendanceStatus
	Promos     PromoHistory
	Patients   PatientDirectory
	Config     *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:         p.DB,
		vouchers:   p.Vouchers,
		attendance: p.Attendance,
		promos:     p.Promos,
		patients:   p.Patients,
		timeout:    p.Config.Dashboard.FetchTimeout,
		now:        time.Now,
	}
}

// Summary fans out to every branch concurrently, each under its own
// timeout. A failing branch degrades to its zero value; the response
// itself never fails on a branch error.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{GeneratedAt: s.now()}

	var mu sync.Mutex
	degrade := func(branch string, err error) {
		mu.Lock()
		summary.Degraded = append(summary.Degraded, branch)
		mu.Unlock()
		zap.L().Warn("dashboard branch degraded", zap.String("branch", branch), zap.Error(err))
	}

	branch := func(ctx context.Context, fn func(context.Context) error) error {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return fn(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return branch(gctx, func(ctx context.Context) error {
			stats, err := s.vouchers.Stats(ctx)
			if err != nil {
				degrade("vouchers", err)
				return nil
			}
			mu.Lock()
			summary.Vouchers = stats
			mu.Unlock()
			return nil
		})
	})

	g.Go(func() error {
		return branch(gctx, func(ctx context.Context) error {
			statuses, err := s.attendance.Status(ctx, attendance.PersonDoctor, "")
			if err != nil {
				degrade("doctor-attendance", err)
				return nil
			}
			mu.Lock()
			summary.DoctorsPresent = countPresent(statuses)
			mu.Unlock()
			return nil
		})
	})

	g.Go(func() error {
		return branch(gctx, func(ctx context.Context) error {
			statuses, err := s.attendance.Status(ctx, attendance.PersonEmployee, "")
			if err != nil {
				degrade("employee-attendance", err)
				return nil
			}
			mu.Lock()
			summary.EmployeesPresent = countPresent(statuses)
			mu.Unlock()
			return nil
		})
	})

	g.Go(func() error {
		return branch(gctx, func(ctx context.Context) error {
			entries, err := s.promos.ListHistory(ctx)
			if err != nil {
				degrade("promo-history", err)
				return nil
			}
			mu.Lock()
			summary.CampaignsSent = len(entries)
			mu.Unlock()
			return nil
		})
	})

	g.Go(func() error {
		return branch(gctx, func(ctx context.Context) error {
			patients, err := s.patients.ListPatients(ctx, "")
			if err != nil {
				degrade("patients", err)
				return nil
			}
			mu.Lock()
			summary.TotalPatients = len(patients)
			mu.Unlock()
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, errutil.Internal("dashboard aggregation failed", errutil.WithErr(err))
	}

	sort.Strings(summary.Degraded)
	return summary, nil
}

func countPresent(statuses []attendance.PresenceStatus) int {
	n := 0
	for _, st := range statuses {
		if st.Present {
			n++
		}
	}
	return n
}

// DatabaseStats reports per-table row counts for the admin view.
func (s *Service) DatabaseStats(ctx context.Context) (map[string]int64, error) {
	models := map[string]interface{}{
		"vouchers":              &voucher.Voucher{},
		"voucher_usages":        &voucher.VoucherUsage{},
		"patient_voucher_codes": &voucher.PatientVoucherCode{},
		"attendance_records":    &attendance.Record{},
		"promo_images":          &promo.Image{},
		"promo_histories":       &promo.History{},
		"patients":              &directory.Patient{},
		"doctors":               &directory.Doctor{},
		"employees":             &directory.Employee{},
	}

	stats := make(map[string]int64, len(models))
	for name, model := range models {
		var count int64
		if err := s.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
			return nil, errutil.Internal("failed to count "+name, errutil.WithErr(err))
		}
		stats[name] = count
	}
	return stats, nil
}
