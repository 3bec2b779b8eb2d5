package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-adminplane/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DuplicateError carries the already-stored record so the transport layer
// can return it alongside the conflict.
type DuplicateError struct {
	Existing Record
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already recorded for %s on %s", e.Existing.Type, e.Existing.Name, e.Existing.Date)
}

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	now  func() time.Time
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		now:  time.Now,
	}
}

type SubmitInput struct {
	PersonID string     `json:"person_id"`
	Name     string     `json:"name"`
	Shift    string     `json:"shift"`
	Type     RecordType `json:"type"`
	Date     string     `json:"date"`
	Time     string     `json:"time"`
}

// Submit stores one attendance event. The duplicate check runs before the
// insert so a repeated (person, date, shift, type) submission is rejected
// with the existing record instead of writing a second one.
func (s *Service) Submit(ctx context.Context, personType PersonType, in SubmitInput) (*Record, error) {
	var details []errutil.Detail
	if in.PersonID == "" {
		details = append(details, errutil.Detail{Field: "person_id", Message: "person_id is required"})
	}
	if in.Name == "" {
		details = append(details, errutil.Detail{Field: "name", Message: "name is required"})
	}
	if !in.Type.Valid() {
		details = append(details, errutil.Detail{Field: "type", Message: "must be check-in or check-out"})
	}
	if in.Date != "" {
		if _, err := time.Parse("2006-01-02", in.Date); err != nil {
			details = append(details, errutil.Detail{Field: "date", Message: "must be YYYY-MM-DD"})
		}
	}
	if in.Time != "" {
		if _, err := time.Parse("15:04", in.Time); err != nil {
			details = append(details, errutil.Detail{Field: "time", Message: "must be HH:MM"})
		}
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid attendance record", errutil.WithDetails(details...))
	}

	now := s.now()
	if in.Date == "" {
		in.Date = now.Format("2006-01-02")
	}
	if in.Time == "" {
		in.Time = now.Format("15:04")
	}

	var existing Record
	err := s.db.WithContext(ctx).
		Where("person_id = ? AND person_type = ? AND date = ? AND shift = ? AND type = ?",
			in.PersonID, personType, in.Date, in.Shift, in.Type).
		First(&existing).Error
	if err == nil {
		return nil, &DuplicateError{Existing: existing}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.Internal("failed to check existing attendance", errutil.WithErr(err))
	}

	record := &Record{
		ID:         s.node.Generate().String(),
		PersonID:   in.PersonID,
		PersonType: personType,
		Name:       in.Name,
		Shift:      in.Shift,
		Type:       in.Type,
		Date:       in.Date,
		Time:       in.Time,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, errutil.Internal("failed to store attendance", errutil.WithErr(err))
	}

	zap.L().Info("attendance recorded",
		zap.String("person_id", record.PersonID),
		zap.String("person_type", string(personType)),
		zap.String("type", string(record.Type)),
		zap.String("date", record.Date),
	)

	return record, nil
}

// List returns the records of one day, newest first within a day.
func (s *Service) List(ctx context.Context, personType PersonType, date string) ([]Record, error) {
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	var records []Record
	err := s.db.WithContext(ctx).
		Where("person_type = ? AND date = ?", personType, date).
		Order("time ASC").
		Find(&records).Error
	if err != nil {
		return nil, errutil.Internal("failed to list attendance", errutil.WithErr(err))
	}

	return records, nil
}

// Status derives today's presence per (person, shift).
func (s *Service) Status(ctx context.Context, personType PersonType, date string) ([]PresenceStatus, error) {
	records, err := s.List(ctx, personType, date)
	if err != nil {
		return nil, err
	}

	return DerivePresence(records), nil
}
