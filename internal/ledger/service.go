// Package ledger records fee payments against admissions.
//
// A payment and the matching increase of the admission's paid_fee are written in one
// transaction. The increase is a conditional update (paid_fee + amount <= total_fee), so two
// payments racing for the same balance can never both commit. When Redis is configured a
// per-admission lock additionally serializes recorders across instances.
package ledger

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
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/ledger/db"
	"ms-backoffice/internal/ledger/lock"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/sequence"
	"ms-backoffice/internal/validation"
	"ms-backoffice/internal/words"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Broadcaster receives committed payments for the live feed.
type Broadcaster interface {
	Broadcast(event models.PaymentEvent)
}

type PaymentInput struct {
	Amount    decimal.Decimal    `json:"amount"`
	Mode      models.PaymentMode `json:"mode" validate:"required,oneof=cash upi card cheque bank_transfer"`
	Reference string             `json:"reference" validate:"max=100"`
	Remarks   string             `json:"remarks" validate:"max=500"`
	// PaidAt defaults to the time of recording.
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

type Balance struct {
	FormNo        string          `json:"form_no"`
	StudentName   string          `json:"student_name"`
	TotalFee      decimal.Decimal `json:"total_fee"`
	PaidFee       decimal.Decimal `json:"paid_fee"`
	Remaining     decimal.Decimal `json:"remaining"`
	PaymentsTotal decimal.Decimal `json:"payments_total"`
	PaymentCount  int             `json:"payment_count"`
}

// Receipt is everything printed on a fee receipt.
type Receipt struct {
	Payment       *models.Payment   `json:"payment"`
	Admission     *models.Admission `json:"admission"`
	AmountInWords string            `json:"amount_in_words"`
}

type Service struct {
	DB          *db.DB
	Allocator   *sequence.Allocator
	Locker      lock.Locker
	Audit       *audit.Trail
	Publisher   kafka.Publisher
	Broadcaster Broadcaster
	Logger      *logger.Logger
	Now         func() time.Time
}

func NewService(store *db.DB, alloc *sequence.Allocator, locker lock.Locker, trail *audit.Trail, pub kafka.Publisher, bc Broadcaster, log *logger.Logger) *Service {
	if locker == nil {
		locker = lock.NopLocker{}
	}
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	return &Service{
		DB:          store,
		Allocator:   alloc,
		Locker:      locker,
		Audit:       trail,
		Publisher:   pub,
		Broadcaster: bc,
		Logger:      log,
		Now:         time.Now,
	}
}

func validateInput(in PaymentInput) error {
	if !in.Amount.IsPositive() {
		return &apperr.ValidationError{
			Err:    apperr.ErrInvalidAmount,
			Fields: []apperr.FieldError{{Field: "amount", Error: apperr.ErrInvalidAmount.Error()}},
		}
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return apperr.Invalid("amount", "amount must have at most 2 decimal places")
	}
	return validation.Struct(in)
}

func admissionNotFound(formNo string) error {
	return &apperr.NotFoundError{Entity: "admission", Key: formNo, Err: apperr.ErrAdmissionNotFound}
}

// RecordPayment records in against the admission formNo and returns the stored payment.
func (s *Service) RecordPayment(ctx context.Context, formNo string, in PaymentInput) (*models.Payment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	release, err := s.Locker.Acquire(ctx, formNo)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.Now().UTC()
	paidAt := now
	if in.PaidAt != nil {
		paidAt = in.PaidAt.UTC()
	}
	actor := auth.OperatorID(ctx)

	var payment *models.Payment
	var adm *models.Admission
	err = s.Allocator.WithRetry(ctx, sequence.KindPayment, now, func(ctx context.Context) error {
		return s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			a, err := s.DB.GetAdmissionByFormNo(ctx, tx, formNo)
			if errors.Is(err, db.ErrNotFound) {
				return admissionNotFound(formNo)
			}
			if err != nil {
				return fmt.Errorf("load admission: %w", err)
			}
			if !a.IsActive {
				return apperr.Violation(apperr.ErrAdmissionInactive)
			}
			if in.Amount.GreaterThan(a.RemainingFee()) {
				return apperr.Violation(apperr.ErrExceedsBalance)
			}

			receiptNo, err := s.Allocator.Allocate(ctx, tx, sequence.KindPayment, now)
			if err != nil {
				return err
			}
			p := &models.Payment{
				ReceiptNo:   receiptNo,
				AdmissionID: a.ID,
				Amount:      in.Amount,
				Mode:        in.Mode,
				Reference:   strings.TrimSpace(in.Reference),
				Remarks:     strings.TrimSpace(in.Remarks),
				PaidAt:      paidAt,
				CreatedBy:   actor,
				CreatedAt:   now,
			}
			if err := s.DB.InsertPayment(ctx, tx, p); err != nil {
				return err
			}

			ok, err := s.DB.AddPaid(ctx, tx, a.ID, in.Amount, now)
			if err != nil {
				return fmt.Errorf("update paid fee: %w", err)
			}
			if !ok {
				return apperr.Violation(apperr.ErrExceedsBalance)
			}
			a.PaidFee = a.PaidFee.Add(in.Amount)

			if err := s.Audit.Record(ctx, tx, audit.ActionPayment, "admission", a.FormNo, actor, map[string]interface{}{
				"receipt_no": receiptNo,
				"amount":     in.Amount.StringFixed(2),
				"paid_fee":   a.PaidFee.StringFixed(2),
			}); err != nil {
				return err
			}

			payment, adm = p, a
			return nil
		})
	})
	if err != nil {
		if apperr.IsViolation(err) {
			s.Logger.LogLedger("REJECTED", formNo, err.Error())
		}
		return nil, err
	}

	payment.Admission = adm
	s.Logger.LogLedger("RECORDED", payment.ReceiptNo, fmt.Sprintf("%s paid %s, remaining %s",
		adm.FormNo, payment.Amount.StringFixed(2), adm.RemainingFee().StringFixed(2)))
	s.afterCommit(ctx, payment, adm)
	return payment, nil
}

// afterCommit fans the payment out. Failures are logged and never undo the payment.
func (s *Service) afterCommit(ctx context.Context, p *models.Payment, a *models.Admission) {
	event := models.PaymentEvent{
		Type:        kafka.EventPaymentRecorded,
		ReceiptNo:   p.ReceiptNo,
		FormNo:      a.FormNo,
		StudentName: a.FullName(),
		Amount:      p.Amount,
		Remaining:   a.RemainingFee(),
		Mode:        p.Mode,
		Timestamp:   p.CreatedAt,
	}
	if err := s.Publisher.Publish(ctx, kafka.EventPaymentRecorded, p.ReceiptNo, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s: %v", p.ReceiptNo, err))
	}
	if s.Broadcaster != nil {
		s.Broadcaster.Broadcast(event)
	}
}

// Balance re-reads the admission and its payments.
func (s *Service) Balance(ctx context.Context, formNo string) (*Balance, error) {
	a, err := s.DB.GetAdmissionByFormNo(ctx, nil, formNo)
	if errors.Is(err, db.ErrNotFound) {
		return nil, admissionNotFound(formNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load admission: %w", err)
	}
	payments, err := s.DB.PaymentsForAdmission(ctx, nil, a.ID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return &Balance{
		FormNo:        a.FormNo,
		StudentName:   a.FullName(),
		TotalFee:      a.TotalFee,
		PaidFee:       a.PaidFee,
		Remaining:     a.RemainingFee(),
		PaymentsTotal: total,
		PaymentCount:  len(payments),
	}, nil
}

// PaymentsFor lists the payments of one admission.
func (s *Service) PaymentsFor(ctx context.Context, formNo string) ([]models.Payment, error) {
	a, err := s.DB.GetAdmissionByFormNo(ctx, nil, formNo)
	if errors.Is(err, db.ErrNotFound) {
		return nil, admissionNotFound(formNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load admission: %w", err)
	}
	return s.DB.PaymentsForAdmission(ctx, nil, a.ID)
}

func (s *Service) History(ctx context.Context, f models.PaymentFilter) ([]models.Payment, error) {
	if f.From != nil {
		from := f.From.UTC()
		f.From = &from
	}
	if f.To != nil {
		to := f.To.UTC()
		f.To = &to
	}
	payments, err := s.DB.ListPayments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *Service) GetReceipt(ctx context.Context, receiptNo string) (*Receipt, error) {
	p, err := s.DB.GetPaymentByReceipt(ctx, receiptNo)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("payment", receiptNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	inWords, err := words.ToWords(p.Amount)
	if err != nil {
		return nil, err
	}
	return &Receipt{Payment: p, Admission: p.Admission, AmountInWords: inWords}, nil
}
