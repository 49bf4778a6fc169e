// Package enquiry manages walk-in and phone enquiries from prospective students.
package enquiry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/audit"
	"ms-backoffice/internal/auth"
	"ms-backoffice/internal/enquiry/db"
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/sequence"
	"ms-backoffice/internal/utils"
	"ms-backoffice/internal/validation"

	"github.com/uptrace/bun"
)

const entity = "enquiry"

type Input struct {
	StudentName string `json:"student_name" validate:"required,max=100"`
	MobileNo    string `json:"mobile_no" validate:"required,mobile"`
	Course      string `json:"course" validate:"required,course"`
	Address     string `json:"address" validate:"required,max=500"`
	// EnquiryDate is YYYY-MM-DD and defaults to today in office time.
	EnquiryDate string `json:"enquiry_date,omitempty"`
}

type Service struct {
	DB        *db.DB
	Allocator *sequence.Allocator
	Audit     *audit.Trail
	Publisher kafka.Publisher
	Location  *time.Location
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewService(store *db.DB, alloc *sequence.Allocator, trail *audit.Trail, pub kafka.Publisher, loc *time.Location, log *logger.Logger) *Service {
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		DB:        store,
		Allocator: alloc,
		Audit:     trail,
		Publisher: pub,
		Location:  loc,
		Logger:    log,
		Now:       time.Now,
	}
}

func (s *Service) normalize(in Input) (Input, time.Time, error) {
	in.StudentName = strings.TrimSpace(in.StudentName)
	in.MobileNo = strings.TrimSpace(in.MobileNo)
	in.Address = strings.TrimSpace(in.Address)
	if err := validation.Struct(in); err != nil {
		return in, time.Time{}, err
	}
	if in.EnquiryDate == "" {
		return in, utils.CivilDate(s.Now(), s.Location), nil
	}
	date, err := utils.ParseDate("enquiry_date", in.EnquiryDate)
	return in, date, err
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Enquiry, error) {
	in, date, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	actor := auth.OperatorID(ctx)

	var created *models.Enquiry
	err = s.Allocator.WithRetry(ctx, sequence.KindEnquiry, now, func(ctx context.Context) error {
		return s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			no, err := s.Allocator.Allocate(ctx, tx, sequence.KindEnquiry, now)
			if err != nil {
				return err
			}
			e := &models.Enquiry{
				EnquiryNo:   no,
				StudentName: in.StudentName,
				MobileNo:    in.MobileNo,
				Course:      in.Course,
				Address:     in.Address,
				EnquiryDate: date,
				CreatedBy:   actor,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.DB.Insert(ctx, tx, e); err != nil {
				return err
			}
			if err := s.Audit.Record(ctx, tx, audit.ActionCreate, entity, no, actor, nil); err != nil {
				return err
			}
			created = e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("ENQUIRY", fmt.Sprintf("Created %s for %s (%s)", created.EnquiryNo, created.StudentName, created.Course))
	if err := s.Publisher.Publish(ctx, kafka.EventEnquiryCreated, created.EnquiryNo, created); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s: %v", created.EnquiryNo, err))
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, enquiryNo string) (*models.Enquiry, error) {
	e, err := s.DB.GetByNo(ctx, nil, enquiryNo)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(entity, enquiryNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load enquiry: %w", err)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, f models.EnquiryFilter) ([]models.Enquiry, error) {
	if f.Course != "" && !validation.IsCourse(f.Course) {
		return nil, apperr.Invalid("course", "course must be one of "+strings.Join(validation.Courses, ", "))
	}
	enquiries, err := s.DB.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	return enquiries, nil
}

// Update replaces the editable fields. An empty EnquiryDate keeps the stored date.
func (s *Service) Update(ctx context.Context, enquiryNo string, in Input) (*models.Enquiry, error) {
	keepDate := in.EnquiryDate == ""
	in, date, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	actor := auth.OperatorID(ctx)

	var updated *models.Enquiry
	err = s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		e, err := s.DB.GetByNo(ctx, tx, enquiryNo)
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound(entity, enquiryNo)
		}
		if err != nil {
			return fmt.Errorf("load enquiry: %w", err)
		}
		e.StudentName, e.MobileNo, e.Course, e.Address = in.StudentName, in.MobileNo, in.Course, in.Address
		if !keepDate {
			e.EnquiryDate = date
		}
		e.UpdatedAt = s.Now().UTC()
		if err := s.DB.Update(ctx, tx, e); err != nil {
			return fmt.Errorf("update enquiry: %w", err)
		}
		updated = e
		return s.Audit.Record(ctx, tx, audit.ActionUpdate, entity, enquiryNo, actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, enquiryNo string) error {
	actor := auth.OperatorID(ctx)
	err := s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		e, err := s.DB.GetByNo(ctx, tx, enquiryNo)
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound(entity, enquiryNo)
		}
		if err != nil {
			return fmt.Errorf("load enquiry: %w", err)
		}
		if err := s.DB.Delete(ctx, tx, e.ID); err != nil {
			return fmt.Errorf("delete enquiry: %w", err)
		}
		return s.Audit.Record(ctx, tx, audit.ActionDelete, entity, enquiryNo, actor, map[string]interface{}{
			"student_name": e.StudentName,
			"mobile_no":    e.MobileNo,
		})
	})
	if err != nil {
		return err
	}
	s.Logger.Info("ENQUIRY", fmt.Sprintf("Deleted %s", enquiryNo))
	return nil
}

// NextNumber shows the number the next enquiry would get. It is not reserved.
func (s *Service) NextNumber(ctx context.Context) (string, error) {
	return s.Allocator.Peek(ctx, sequence.KindEnquiry, s.Now())
}
