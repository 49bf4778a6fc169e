// Package admission manages student admissions: the enrolment form, fee terms, photo and the
// explicit cascade that removes an admission together with its fee payments.
package admission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ms-backoffice/internal/admission/db"
	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/audit"
	"ms-backoffice/internal/auth"
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/sequence"
	"ms-backoffice/internal/utils"
	"ms-backoffice/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const entity = "admission"

type Input struct {
	AdmissionDate string `json:"admission_date,omitempty"`
	CourseName    string `json:"course_name" validate:"required,course"`
	Batch         string `json:"batch" validate:"required,batch"`
	FirstName     string `json:"first_name" validate:"required,max=50"`
	MiddleName    string `json:"middle_name" validate:"max=50"`
	LastName      string `json:"last_name" validate:"required,max=50"`
	BirthDate     string `json:"birth_date" validate:"required"`
	MobileOwn     string `json:"mobile_own" validate:"required,mobile"`
	MobileParents string `json:"mobile_parents" validate:"omitempty,mobile"`
	Address       string `json:"address" validate:"required,max=500"`
	Qualification string `json:"qualification" validate:"required,max=100"`
	Installments  int    `json:"installments" validate:"required,oneof=1 2"`
	// TotalFee falls back to the configured default when omitted.
	TotalFee *decimal.Decimal `json:"total_fee,omitempty"`
}

// DeletedPayment is listed in the audit entry written when an admission is removed.
type DeletedPayment struct {
	ReceiptNo string `json:"receipt_no"`
	Amount    string `json:"amount"`
}

type Service struct {
	DB              *db.DB
	Allocator       *sequence.Allocator
	Audit           *audit.Trail
	Publisher       kafka.Publisher
	Photos          *PhotoStore
	Location        *time.Location
	DefaultTotalFee decimal.Decimal
	Logger          *logger.Logger
	Now             func() time.Time
}

func NewService(store *db.DB, alloc *sequence.Allocator, trail *audit.Trail, pub kafka.Publisher, photos *PhotoStore, loc *time.Location, defaultFee decimal.Decimal, log *logger.Logger) *Service {
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		DB:              store,
		Allocator:       alloc,
		Audit:           trail,
		Publisher:       pub,
		Photos:          photos,
		Location:        loc,
		DefaultTotalFee: defaultFee,
		Logger:          log,
		Now:             time.Now,
	}
}

type fields struct {
	admissionDate time.Time
	birthDate     time.Time
	totalFee      decimal.Decimal
}

func (s *Service) check(in *Input) (fields, error) {
	for _, p := range []*string{&in.FirstName, &in.MiddleName, &in.LastName, &in.MobileOwn,
		&in.MobileParents, &in.Address, &in.Qualification, &in.Batch} {
		*p = strings.TrimSpace(*p)
	}
	var f fields
	if err := validation.Struct(*in); err != nil {
		return f, err
	}

	f.admissionDate = utils.CivilDate(s.Now(), s.Location)
	if in.AdmissionDate != "" {
		d, err := utils.ParseDate("admission_date", in.AdmissionDate)
		if err != nil {
			return f, err
		}
		f.admissionDate = d
	}
	birth, err := utils.ParseDate("birth_date", in.BirthDate)
	if err != nil {
		return f, err
	}
	if !birth.Before(f.admissionDate) {
		return f, apperr.Invalid("birth_date", "birth_date must be before the admission date")
	}
	f.birthDate = birth

	f.totalFee = s.DefaultTotalFee
	if in.TotalFee != nil {
		f.totalFee = *in.TotalFee
	}
	if f.totalFee.IsNegative() {
		return f, apperr.Invalid("total_fee", "total_fee must not be negative")
	}
	if !f.totalFee.Equal(f.totalFee.Round(2)) {
		return f, apperr.Invalid("total_fee", "total_fee must have at most 2 decimal places")
	}
	return f, nil
}

func apply(a *models.Admission, in Input, f fields) {
	a.AdmissionDate = f.admissionDate
	a.CourseName = in.CourseName
	a.Batch = in.Batch
	a.FirstName = in.FirstName
	a.MiddleName = in.MiddleName
	a.LastName = in.LastName
	a.BirthDate = f.birthDate
	a.MobileOwn = in.MobileOwn
	a.MobileParents = in.MobileParents
	a.Address = in.Address
	a.Qualification = in.Qualification
	a.Installments = in.Installments
	a.TotalFee = f.totalFee
}

func notFound(formNo string) error {
	return &apperr.NotFoundError{Entity: entity, Key: formNo, Err: apperr.ErrAdmissionNotFound}
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Admission, error) {
	f, err := s.check(&in)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	actor := auth.OperatorID(ctx)

	var created *models.Admission
	err = s.Allocator.WithRetry(ctx, sequence.KindAdmission, now, func(ctx context.Context) error {
		return s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			formNo, err := s.Allocator.Allocate(ctx, tx, sequence.KindAdmission, now)
			if err != nil {
				return err
			}
			a := &models.Admission{
				FormNo:    formNo,
				PaidFee:   decimal.Zero,
				IsActive:  true,
				CreatedBy: actor,
				CreatedAt: now,
				UpdatedAt: now,
			}
			apply(a, in, f)
			if err := s.DB.Insert(ctx, tx, a); err != nil {
				return err
			}
			if err := s.Audit.Record(ctx, tx, audit.ActionCreate, entity, formNo, actor, map[string]interface{}{
				"total_fee": a.TotalFee.StringFixed(2),
			}); err != nil {
				return err
			}
			created = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("ADMISSION", fmt.Sprintf("Created %s for %s (%s %s)", created.FormNo, created.FullName(), created.CourseName, created.Batch))
	if err := s.Publisher.Publish(ctx, kafka.EventAdmissionCreated, created.FormNo, created); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s: %v", created.FormNo, err))
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, formNo string) (*models.Admission, error) {
	a, err := s.DB.GetByFormNo(ctx, nil, formNo)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound(formNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load admission: %w", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f models.AdmissionFilter) ([]models.Admission, error) {
	if f.Course != "" && !validation.IsCourse(f.Course) {
		return nil, apperr.Invalid("course", "course must be one of "+strings.Join(validation.Courses, ", "))
	}
	admissions, err := s.DB.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list admissions: %w", err)
	}
	return admissions, nil
}

// Update replaces the personal fields and fee terms. Lowering total_fee below what has already
// been paid is rejected. An empty admission_date keeps the stored date.
func (s *Service) Update(ctx context.Context, formNo string, in Input) (*models.Admission, error) {
	keepDate := in.AdmissionDate == ""
	actor := auth.OperatorID(ctx)

	var updated *models.Admission
	err := s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		a, err := s.DB.GetByFormNo(ctx, tx, formNo)
		if errors.Is(err, db.ErrNotFound) {
			return notFound(formNo)
		}
		if err != nil {
			return fmt.Errorf("load admission: %w", err)
		}
		if keepDate {
			in.AdmissionDate = a.AdmissionDate.Format(utils.DateLayout)
		}
		if in.TotalFee == nil {
			fee := a.TotalFee
			in.TotalFee = &fee
		}
		f, err := s.check(&in)
		if err != nil {
			return err
		}
		if f.totalFee.LessThan(a.PaidFee) {
			return apperr.Violation(apperr.ErrFeeBelowPaid)
		}

		previous := a.TotalFee
		apply(a, in, f)
		a.UpdatedAt = s.Now().UTC()
		ok, err := s.DB.UpdateDetails(ctx, tx, a)
		if err != nil {
			return fmt.Errorf("update admission: %w", err)
		}
		if !ok {
			return apperr.Violation(apperr.ErrFeeBelowPaid)
		}
		updated = a
		return s.Audit.Record(ctx, tx, audit.ActionUpdate, entity, formNo, actor, map[string]interface{}{
			"previous_total_fee": previous.StringFixed(2),
			"total_fee":          a.TotalFee.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Deactivate(ctx context.Context, formNo string) (*models.Admission, error) {
	actor := auth.OperatorID(ctx)
	var out *models.Admission
	err := s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		a, err := s.DB.GetByFormNo(ctx, tx, formNo)
		if errors.Is(err, db.ErrNotFound) {
			return notFound(formNo)
		}
		if err != nil {
			return fmt.Errorf("load admission: %w", err)
		}
		if !a.IsActive {
			out = a
			return nil
		}
		now := s.Now().UTC()
		if err := s.DB.SetActive(ctx, tx, a.ID, false, now); err != nil {
			return fmt.Errorf("deactivate admission: %w", err)
		}
		a.IsActive, a.UpdatedAt = false, now
		out = a
		return s.Audit.Record(ctx, tx, audit.ActionDeactivate, entity, formNo, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UploadPhoto stores the resized photo and records its path on the admission.
func (s *Service) UploadPhoto(ctx context.Context, formNo string, r io.Reader) (*models.Admission, error) {
	a, err := s.Get(ctx, formNo)
	if err != nil {
		return nil, err
	}
	path, err := s.Photos.Save(a.FormNo, r)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	if err := s.DB.SetPhoto(ctx, nil, a.ID, path, now); err != nil {
		return nil, fmt.Errorf("save photo path: %w", err)
	}
	a.PhotoPath, a.UpdatedAt = path, now
	return a, nil
}

// Delete removes the admission and all of its payments in one transaction and records the removed
// receipts in the audit trail.
func (s *Service) Delete(ctx context.Context, formNo string) error {
	actor := auth.OperatorID(ctx)
	var removed *models.Admission
	var receipts []DeletedPayment

	err := s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		a, err := s.DB.GetByFormNo(ctx, tx, formNo)
		if errors.Is(err, db.ErrNotFound) {
			return notFound(formNo)
		}
		if err != nil {
			return fmt.Errorf("load admission: %w", err)
		}
		payments, err := s.DB.Payments(ctx, tx, a.ID)
		if err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		receipts = make([]DeletedPayment, 0, len(payments))
		for _, p := range payments {
			receipts = append(receipts, DeletedPayment{ReceiptNo: p.ReceiptNo, Amount: p.Amount.StringFixed(2)})
		}
		if err := s.DB.DeleteWithPayments(ctx, tx, a.ID); err != nil {
			return fmt.Errorf("delete admission: %w", err)
		}
		removed = a
		return s.Audit.Record(ctx, tx, audit.ActionDelete, entity, formNo, actor, map[string]interface{}{
			"student_name": a.FullName(),
			"paid_fee":     a.PaidFee.StringFixed(2),
			"payments":     receipts,
		})
	})
	if err != nil {
		return err
	}

	s.Logger.Info("ADMISSION", fmt.Sprintf("Deleted %s with %d payment(s)", formNo, len(receipts)))
	if s.Photos != nil {
		if err := s.Photos.Remove(removed.PhotoPath); err != nil {
			s.Logger.Warn("ADMISSION", fmt.Sprintf("Failed to remove photo of %s: %v", formNo, err))
		}
	}
	event := map[string]interface{}{"form_no": formNo, "student_name": removed.FullName(), "payments": receipts}
	if err := s.Publisher.Publish(ctx, kafka.EventAdmissionDeleted, formNo, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish deletion of %s: %v", formNo, err))
	}
	return nil
}
