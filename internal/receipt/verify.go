package receipt

import (
	"context"
	"database/sql"
	"errors"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Verification struct {
	Valid     bool            `json:"valid"`
	Kind      string          `json:"kind"`
	ReceiptNo string          `json:"receipt_no"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Message   string          `json:"message"`
}

type Verifier struct {
	Codec *Codec
	Bun   *bun.DB
}

func NewVerifier(codec *Codec, db *bun.DB) *Verifier {
	return &Verifier{Codec: codec, Bun: db}
}

// Verify decrypts a scanned code and checks the receipt still exists with the printed amount.
func (v *Verifier) Verify(ctx context.Context, code string) (*Verification, error) {
	p, err := v.Codec.Open(code)
	if err != nil {
		return nil, err
	}
	printed, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return nil, apperr.Invalid("code", "receipt code is not valid")
	}

	var stored decimal.Decimal
	switch p.Kind {
	case KindPayment:
		err = v.Bun.NewSelect().Model((*models.Payment)(nil)).
			Column("amount").Where("receipt_no = ?", p.ReceiptNo).Scan(ctx, &stored)
	case KindBill:
		err = v.Bun.NewSelect().Model((*models.Bill)(nil)).
			Column("total_amount").Where("receipt_no = ?", p.ReceiptNo).Scan(ctx, &stored)
	default:
		return nil, apperr.Invalid("code", "receipt code is not valid")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(p.Kind, p.ReceiptNo)
	}
	if err != nil {
		return nil, err
	}

	out := &Verification{Kind: p.Kind, ReceiptNo: p.ReceiptNo, Amount: printed, Date: p.Date}
	if stored.Equal(printed) {
		out.Valid = true
		out.Message = "receipt is genuine"
	} else {
		out.Message = "amount does not match the recorded " + p.Kind
	}
	return out, nil
}
