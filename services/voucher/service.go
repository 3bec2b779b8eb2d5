package voucher

import (
	"context"
	"errors"
	"time"

	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/pkg/sequence"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Rejection reasons returned by Validate, in the order checks run.
const (
	ReasonNotFound            = "not_found"
	ReasonInactive            = "inactive"
	ReasonExpired             = "expired"
	ReasonUsageLimitReached   = "usage_limit_reached"
	ReasonBelowMinimumPurchase = "below_minimum_purchase"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator
	now  func() time.Time
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
	Seq  sequence.Generator
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		seq:  p.Seq,
		now:  time.Now,
	}
}

type CreateInput struct {
	Code          string       `json:"code"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	MaxDiscount   float64      `json:"max_discount"`
	MinPurchase   float64      `json:"min_purchase"`
	ExpiryDate    time.Time    `json:"expiry_date"`
	UsageLimit    int          `json:"usage_limit"`
	CreatedBy     string       `json:"created_by"`
}

// Create validates the form fields before anything is written. Percentages
// above 100 are accepted here; redemption clamps them.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Voucher, error) {
	var details []errutil.Detail
	if isSentinel(in.Title) {
		details = append(details, errutil.Detail{Field: "title", Message: "title is required"})
	}
	if !in.DiscountType.Valid() {
		details = append(details, errutil.Detail{Field: "discount_type", Message: "must be percentage or fixed"})
	}
	if in.DiscountValue <= 0 {
		details = append(details, errutil.Detail{Field: "discount_value", Message: "must be greater than zero"})
	}
	if in.ExpiryDate.IsZero() {
		details = append(details, errutil.Detail{Field: "expiry_date", Message: "expiry date is required"})
	}
	if in.UsageLimit < 0 {
		details = append(details, errutil.Detail{Field: "usage_limit", Message: "must not be negative"})
	}
	if in.MinPurchase < 0 {
		details = append(details, errutil.Detail{Field: "min_purchase", Message: "must not be negative"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid voucher", errutil.WithDetails(details...))
	}

	code := in.Code
	if code == "" {
		generated, err := s.seq.NextVoucherCode(ctx)
		if err != nil {
			return nil, errutil.Internal("failed to generate voucher code", errutil.WithErr(err))
		}
		code = generated
	}

	v := &Voucher{
		ID:            s.node.Generate().String(),
		Code:          code,
		Title:         in.Title,
		Description:   in.Description,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		MaxDiscount:   in.MaxDiscount,
		MinPurchase:   in.MinPurchase,
		ExpiryDate:    in.ExpiryDate,
		UsageLimit:    in.UsageLimit,
		IsActive:      true,
		CreatedBy:     in.CreatedBy,
	}

	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errutil.Conflict("voucher code already exists")
		}
		return nil, errutil.Internal("failed to create voucher", errutil.WithErr(err))
	}

	return v, nil
}

// List returns all vouchers with corrupt records filtered out.
func (s *Service) List(ctx context.Context) ([]Voucher, error) {
	var vouchers []Voucher
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&vouchers).Error; err != nil {
		return nil, errutil.Internal("failed to list vouchers", errutil.WithErr(err))
	}
	return Sanitize(vouchers), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Voucher, error) {
	var v Voucher
	if err := s.db.WithContext(ctx).Where("voucher_id = ?", id).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("voucher not found")
		}
		return nil, errutil.Internal("failed to fetch voucher", errutil.WithErr(err))
	}
	return &v, nil
}

type ValidateInput struct {
	Code            string          `json:"code"`
	Amount          float64         `json:"amount"`
	PatientID       string          `json:"patient_id"`
	TransactionType TransactionType `json:"transaction_type"`
}

type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Reason         string   `json:"reason,omitempty"`
	Message        string   `json:"message,omitempty"`
	Voucher        *Voucher `json:"voucher,omitempty"`
	DiscountAmount float64  `json:"discount_amount"`
	FinalAmount    float64  `json:"final_amount"`
}

// Validate runs the redemption checks in order; the first failing check is
// the rejection reason. A business rejection is a result, not an error.
func (s *Service) Validate(ctx context.Context, in ValidateInput) (*ValidationResult, error) {
	var v Voucher
	err := s.db.WithContext(ctx).Where("code = ?", in.Code).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rejection(ReasonNotFound, "voucher code not found"), nil
	}
	if err != nil {
		return nil, errutil.Internal("failed to fetch voucher", errutil.WithErr(err))
	}

	if IsCorrupt(&v) {
		return rejection(ReasonNotFound, "voucher code not found"), nil
	}
	if !v.IsActive {
		return rejection(ReasonInactive, "voucher is not active"), nil
	}
	if v.ExpiryDate.Before(s.now()) {
		return rejection(ReasonExpired, "voucher has expired"), nil
	}
	if v.UsageLimit > 0 && v.UsageCount >= v.UsageLimit {
		return rejection(ReasonUsageLimitReached, "voucher usage limit reached"), nil
	}
	if v.MinPurchase > 0 && in.Amount < v.MinPurchase {
		return rejection(ReasonBelowMinimumPurchase, "amount is below minimum purchase"), nil
	}

	discount := ComputeDiscount(&v, in.Amount)
	return &ValidationResult{
		Valid:          true,
		Voucher:        &v,
		DiscountAmount: discount,
		FinalAmount:    in.Amount - discount,
	}, nil
}

type RedeemInput struct {
	Code            string          `json:"code"`
	Amount          float64         `json:"amount"`
	PatientID       string          `json:"patient_id"`
	PatientName     string          `json:"patient_name"`
	TransactionType TransactionType `json:"transaction_type"`
	TransactionID   string          `json:"transaction_id"`
	UsedBy          string          `json:"used_by"`
}

// Redeem validates, then increments the usage count and writes the usage
// record in one transaction. The increment is conditional on the limit so
// usage_count <= usage_limit holds under concurrent redemptions.
func (s *Service) Redeem(ctx context.Context, in RedeemInput) (*VoucherUsage, error) {
	result, err := s.Validate(ctx, ValidateInput{
		Code:            in.Code,
		Amount:          in.Amount,
		PatientID:       in.PatientID,
		TransactionType: in.TransactionType,
	})
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, errutil.UnprocessableEntity(result.Message, errutil.WithDetails(errutil.Detail{Field: "code", Message: result.Reason}))
	}

	v := result.Voucher
	usage := &VoucherUsage{
		ID:              s.node.Generate().String(),
		VoucherID:       v.ID,
		VoucherCode:     v.Code,
		PatientID:       in.PatientID,
		PatientName:     in.PatientName,
		OriginalAmount:  in.Amount,
		DiscountAmount:  result.DiscountAmount,
		FinalAmount:     result.FinalAmount,
		TransactionType: in.TransactionType,
		TransactionID:   in.TransactionID,
		UsedBy:          in.UsedBy,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Voucher{}).
			Where("voucher_id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", v.ID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("voucher usage limit reached")
		}

		return tx.Create(usage).Error
	})
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) {
			return nil, err
		}
		return nil, errutil.Internal("failed to redeem voucher", errutil.WithErr(err))
	}

	zap.L().Info("voucher redeemed",
		zap.String("voucher_id", v.ID),
		zap.String("code", v.Code),
		zap.String("patient_id", in.PatientID),
		zap.Float64("discount", result.DiscountAmount),
	)

	return usage, nil
}

// SetStatus toggles the active flag.
func (s *Service) SetStatus(ctx context.Context, id string, active bool) (*Voucher, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(v).Update("is_active", active).Error; err != nil {
		return nil, errutil.Internal("failed to update voucher status", errutil.WithErr(err))
	}
	v.IsActive = active
	return v, nil
}

// Stats aggregates redemption activity across all vouchers.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByType: make(map[TransactionType]Usage)}

	db := s.db.WithContext(ctx)
	if err := db.Model(&Voucher{}).Count(&stats.TotalVouchers).Error; err != nil {
		return nil, errutil.Internal("failed to count vouchers", errutil.WithErr(err))
	}
	if err := db.Model(&Voucher{}).Where("is_active = ?", true).Count(&stats.ActiveVouchers).Error; err != nil {
		return nil, errutil.Internal("failed to count active vouchers", errutil.WithErr(err))
	}

	var rows []struct {
		TransactionType TransactionType
		Count           int64
		Discount        float64
	}
	err := db.Model(&VoucherUsage{}).
		Select("transaction_type, COUNT(*) AS count, COALESCE(SUM(discount_amount), 0) AS discount").
		Group("transaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, errutil.Internal("failed to aggregate voucher usage", errutil.WithErr(err))
	}

	for _, row := range rows {
		stats.TotalRedemptions += row.Count
		stats.TotalDiscount += row.Discount
		stats.ByType[row.TransactionType] = Usage{Count: row.Count, Discount: row.Discount}
	}

	return stats, nil
}

// UsageLog lists redemption records, optionally narrowed to one voucher.
func (s *Service) UsageLog(ctx context.Context, voucherID string) ([]VoucherUsage, error) {
	query := s.db.WithContext(ctx).Order("used_at DESC")
	if voucherID != "" {
		query = query.Where("voucher_id = ?", voucherID)
	}

	var usages []VoucherUsage
	if err := query.Find(&usages).Error; err != nil {
		return nil, errutil.Internal("failed to list voucher usage", errutil.WithErr(err))
	}
	return usages, nil
}

type PatientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GeneratePerPatient mints one unique code per patient from the base voucher,
// returned in input order.
func (s *Service) GeneratePerPatient(ctx context.Context, voucherID string, patients []PatientRef) ([]PatientVoucherCode, error) {
	if len(patients) == 0 {
		return nil, errutil.ValidationFailed("at least one patient is required")
	}

	v, err := s.Get(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if IsCorrupt(v) {
		return nil, errutil.UnprocessableEntity("voucher record is corrupt")
	}

	codes := make([]PatientVoucherCode, 0, len(patients))
	for _, p := range patients {
		code, err := s.seq.NextPatientCode(ctx, v.Code)
		if err != nil {
			return nil, errutil.Internal("failed to generate patient code", errutil.WithErr(err))
		}

		codes = append(codes, PatientVoucherCode{
			ID:          s.node.Generate().String(),
			VoucherID:   v.ID,
			PatientID:   p.ID,
			PatientName: p.Name,
			Code:        code,
		})
	}

	if err := s.db.WithContext(ctx).Create(&codes).Error; err != nil {
		return nil, errutil.Internal("failed to store patient codes", errutil.WithErr(err))
	}

	return codes, nil
}

// Delete removes a voucher. Vouchers with redemptions are protected; force
// bypasses the protection and requires the admin role.
func (s *Service) Delete(ctx context.Context, id string, force bool, role string) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var usageCount int64
	if err := s.db.WithContext(ctx).Model(&VoucherUsage{}).Where("voucher_id = ?", v.ID).Count(&usageCount).Error; err != nil {
		return errutil.Internal("failed to count voucher usage", errutil.WithErr(err))
	}

	if usageCount > 0 {
		if !force {
			return errutil.Conflict("voucher has redemptions; use force=true to delete anyway")
		}
		if role != "admin" {
			return errutil.Forbidden("force delete requires the admin role")
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("voucher_id = ?", v.ID).Delete(&PatientVoucherCode{}).Error; err != nil {
			return err
		}
		if force {
			if err := tx.Where("voucher_id = ?", v.ID).Delete(&VoucherUsage{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&Voucher{}, "voucher_id = ?", v.ID).Error
	})
}

// Cleanup deletes every voucher the sanitiser marks corrupt and returns how
// many were removed.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	var vouchers []Voucher
	if err := s.db.WithContext(ctx).Find(&vouchers).Error; err != nil {
		return 0, errutil.Internal("failed to list vouchers", errutil.WithErr(err))
	}

	var corrupt []string
	for i := range vouchers {
		if IsCorrupt(&vouchers[i]) {
			corrupt = append(corrupt, vouchers[i].ID)
		}
	}

	if len(corrupt) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Where("voucher_id IN ?", corrupt).Delete(&Voucher{})
	if res.Error != nil {
		return 0, errutil.Internal("failed to delete corrupt vouchers", errutil.WithErr(res.Error))
	}

	zap.L().Info("corrupt vouchers removed", zap.Int64("count", res.RowsAffected))
	return res.RowsAffected, nil
}

func rejection(reason, message string) *ValidationResult {
	return &ValidationResult{Valid: false, Reason: reason, Message: message}
}
