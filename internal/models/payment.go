package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type PaymentMode string

const (
	ModeCash         PaymentMode = "cash"
	ModeUPI          PaymentMode = "upi"
	ModeCard         PaymentMode = "card"
	ModeCheque       PaymentMode = "cheque"
	ModeBankTransfer PaymentMode = "bank_transfer"
)

// Payment is one fee instalment recorded against an admission.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:payment"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id"`
	ReceiptNo   string          `bun:"receipt_no,notnull,unique" json:"receipt_no"`
	AdmissionID int64           `bun:"admission_id,notnull" json:"admission_id"`
	Admission   *Admission      `bun:"rel:belongs-to,join:admission_id=id" json:"admission,omitempty"`
	Amount      decimal.Decimal `bun:"amount,type:decimal(10,2),notnull" json:"amount"`
	Mode        PaymentMode     `bun:"mode,notnull" json:"mode"`
	Reference   string          `bun:"reference" json:"reference,omitempty"`
	Remarks     string          `bun:"remarks" json:"remarks,omitempty"`
	PaidAt      time.Time       `bun:"paid_at,notnull" json:"paid_at"`
	CreatedBy   int64           `bun:"created_by,nullzero" json:"created_by,omitempty"`
	CreatedAt   time.Time       `bun:"created_at,notnull" json:"created_at"`
}

type PaymentFilter struct {
	From        *time.Time
	To          *time.Time
	AdmissionID int64
	Search      string
	Limit       int
}

// PaymentEvent is broadcast on the live feed and published to Kafka once a payment commits.
type PaymentEvent struct {
	Type        string          `json:"type"`
	ReceiptNo   string          `json:"receipt_no"`
	FormNo      string          `json:"form_no"`
	StudentName string          `json:"student_name"`
	Amount      decimal.Decimal `json:"amount"`
	Remaining   decimal.Decimal `json:"remaining"`
	Mode        PaymentMode     `json:"mode"`
	Timestamp   time.Time       `json:"timestamp"`
}
