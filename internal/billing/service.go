// Package billing issues retail bills (books, stationery, exam forms) with server-computed line
// amounts and daily bill numbers.
package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/audit"
	"ms-backoffice/internal/auth"
	"ms-backoffice/internal/billing/db"
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/sequence"
	"ms-backoffice/internal/utils"
	"ms-backoffice/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const entity = "bill"

type ItemInput struct {
	ItemName string          `json:"item_name" validate:"required,max=200"`
	Quantity decimal.Decimal `json:"quantity" validate:"dec_gt0"`
	Rate     decimal.Decimal `json:"rate" validate:"dec_gte0"`
	// Amount is accepted for compatibility with older clients and always recomputed.
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type Input struct {
	BillDate       string      `json:"bill_date,omitempty"`
	CustomerName   string      `json:"customer_name" validate:"required,max=100"`
	CustomerMobile string      `json:"customer_mobile" validate:"required,mobile"`
	Items          []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// LineAmount is quantity × rate rounded half-up to 2 places.
func LineAmount(quantity, rate decimal.Decimal) decimal.Decimal {
	return quantity.Mul(rate).Round(2)
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

func (s *Service) build(in Input) (*models.Bill, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerMobile = strings.TrimSpace(in.CustomerMobile)
	for i := range in.Items {
		in.Items[i].ItemName = strings.TrimSpace(in.Items[i].ItemName)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	date := utils.CivilDate(s.Now(), s.Location)
	if in.BillDate != "" {
		d, err := utils.ParseDate("bill_date", in.BillDate)
		if err != nil {
			return nil, err
		}
		date = d
	}

	b := &models.Bill{
		BillDate:       date,
		CustomerName:   in.CustomerName,
		CustomerMobile: in.CustomerMobile,
		TotalAmount:    decimal.Zero,
		Items:          make([]*models.BillItem, 0, len(in.Items)),
	}
	for i, it := range in.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		if !it.Quantity.Equal(it.Quantity.Round(2)) {
			return nil, apperr.Invalid(field+".quantity", "quantity must have at most 2 decimal places")
		}
		if !it.Rate.Equal(it.Rate.Round(2)) {
			return nil, apperr.Invalid(field+".rate", "rate must have at most 2 decimal places")
		}
		amount := LineAmount(it.Quantity, it.Rate)
		b.Items = append(b.Items, &models.BillItem{
			ItemName: it.ItemName,
			Quantity: it.Quantity,
			Rate:     it.Rate,
			Amount:   amount,
		})
		b.TotalAmount = b.TotalAmount.Add(amount)
	}
	return b, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Bill, error) {
	b, err := s.build(in)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	b.CreatedBy = auth.OperatorID(ctx)
	b.CreatedAt = now

	err = s.Allocator.WithRetry(ctx, sequence.KindBill, now, func(ctx context.Context) error {
		return s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			no, err := s.Allocator.Allocate(ctx, tx, sequence.KindBill, now)
			if err != nil {
				return err
			}
			b.ID = 0
			b.ReceiptNo = no
			if err := s.DB.InsertBill(ctx, tx, b); err != nil {
				return err
			}
			return s.Audit.Record(ctx, tx, audit.ActionCreate, entity, no, b.CreatedBy, map[string]interface{}{
				"total_amount": b.TotalAmount.StringFixed(2),
				"items":        len(b.Items),
			})
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("BILLING", fmt.Sprintf("Created %s for %s, total %s", b.ReceiptNo, b.CustomerName, b.TotalAmount.StringFixed(2)))
	if err := s.Publisher.Publish(ctx, kafka.EventBillCreated, b.ReceiptNo, b); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s: %v", b.ReceiptNo, err))
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, receiptNo string) (*models.Bill, error) {
	b, err := s.DB.GetByReceipt(ctx, nil, receiptNo)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(entity, receiptNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load bill: %w", err)
	}
	return b, nil
}

// List returns the bills of f.Date. A zero date means today in office time.
func (s *Service) List(ctx context.Context, f models.BillFilter) ([]models.Bill, error) {
	date := f.Date
	if date.IsZero() {
		date = utils.CivilDate(s.Now(), s.Location)
	}
	bills, err := s.DB.ListByDate(ctx, date, f.Customer)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

func (s *Service) Delete(ctx context.Context, receiptNo string) error {
	actor := auth.OperatorID(ctx)
	err := s.DB.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		b, err := s.DB.GetByReceipt(ctx, tx, receiptNo)
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound(entity, receiptNo)
		}
		if err != nil {
			return fmt.Errorf("load bill: %w", err)
		}
		if err := s.DB.Delete(ctx, tx, b.ID); err != nil {
			return fmt.Errorf("delete bill: %w", err)
		}
		return s.Audit.Record(ctx, tx, audit.ActionDelete, entity, receiptNo, actor, map[string]interface{}{
			"customer_name": b.CustomerName,
			"total_amount":  b.TotalAmount.StringFixed(2),
		})
	})
	if err != nil {
		return err
	}
	s.Logger.Info("BILLING", fmt.Sprintf("Deleted %s", receiptNo))
	return nil
}
