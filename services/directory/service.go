package directory

import (
	"context"
	"errors"
	"strings"

	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/pkg/wa"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB, node: p.Node}
}

type PatientInput struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	BirthDate string `json:"birth_date"`
}

func (s *Service) CreatePatient(ctx context.Context, in PatientInput) (*Patient, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errutil.ValidationFailed("name is required")
	}
	if in.Phone != "" {
		normalized, err := wa.NormalizePhone(in.Phone)
		if err != nil {
			return nil, errutil.ValidationFailed("invalid phone number", errutil.WithErr(err))
		}
		in.Phone = normalized
	}

	p := &Patient{
		ID:        s.node.Generate().String(),
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		BirthDate: in.BirthDate,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, errutil.Internal("failed to create patient", errutil.WithErr(err))
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, search string) ([]Patient, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var patients []Patient
	if err := q.Find(&patients).Error; err != nil {
		return nil, errutil.Internal("failed to list patients", errutil.WithErr(err))
	}
	return patients, nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	err := s.db.WithContext(ctx).First(&p, "patient_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("patient not found")
	}
	if err != nil {
		return nil, errutil.Internal("failed to load patient", errutil.WithErr(err))
	}
	return &p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id string, in PatientInput) (*Patient, error) {
	p, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errutil.ValidationFailed("name is required")
	}
	if in.Phone != "" {
		normalized, err := wa.NormalizePhone(in.Phone)
		if err != nil {
			return nil, errutil.ValidationFailed("invalid phone number", errutil.WithErr(err))
		}
		in.Phone = normalized
	}

	p.Name = in.Name
	p.Phone = in.Phone
	p.Email = in.Email
	p.Address = in.Address
	p.BirthDate = in.BirthDate
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, errutil.Internal("failed to update patient", errutil.WithErr(err))
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Patient{}, "patient_id = ?", id)
	if result.Error != nil {
		return errutil.Internal("failed to delete patient", errutil.WithErr(result.Error))
	}
	if result.RowsAffected == 0 {
		return errutil.NotFound("patient not found")
	}
	return nil
}

type DoctorInput struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
}

func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errutil.ValidationFailed("name is required")
	}

	d := &Doctor{
		ID:             s.node.Generate().String(),
		Name:           in.Name,
		Specialization: in.Specialization,
		Phone:          in.Phone,
		IsActive:       true,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, errutil.Internal("failed to create doctor", errutil.WithErr(err))
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var doctors []Doctor
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&doctors).Error; err != nil {
		return nil, errutil.Internal("failed to list doctors", errutil.WithErr(err))
	}
	return doctors, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Doctor{}, "doctor_id = ?", id)
	if result.Error != nil {
		return errutil.Internal("failed to delete doctor", errutil.WithErr(result.Error))
	}
	if result.RowsAffected == 0 {
		return errutil.NotFound("doctor not found")
	}
	return nil
}

type EmployeeInput struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errutil.ValidationFailed("name is required")
	}

	e := &Employee{
		ID:       s.node.Generate().String(),
		Name:     in.Name,
		Role:     in.Role,
		Phone:    in.Phone,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, errutil.Internal("failed to create employee", errutil.WithErr(err))
	}
	return e, nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&employees).Error; err != nil {
		return nil, errutil.Internal("failed to list employees", errutil.WithErr(err))
	}
	return employees, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Employee{}, "employee_id = ?", id)
	if result.Error != nil {
		return errutil.Internal("failed to delete employee", errutil.WithErr(result.Error))
	}
	if result.RowsAffected == 0 {
		return errutil.NotFound("employee not found")
	}
	return nil
}
