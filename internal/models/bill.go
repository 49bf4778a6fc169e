package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Bill struct {
	bun.BaseModel `bun:"table:bills,alias:bill"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	ReceiptNo      string          `bun:"receipt_no,notnull,unique" json:"receipt_no"`
	BillDate       time.Time       `bun:"bill_date,notnull" json:"bill_date"`
	CustomerName   string          `bun:"customer_name,notnull" json:"customer_name"`
	CustomerMobile string          `bun:"customer_mobile,notnull" json:"customer_mobile"`
	TotalAmount    decimal.Decimal `bun:"total_amount,type:decimal(10,2),notnull" json:"total_amount"`
	Items          []*BillItem     `bun:"rel:has-many,join:id=bill_id" json:"items"`
	CreatedBy      int64           `bun:"created_by,nullzero" json:"created_by,omitempty"`
	CreatedAt      time.Time       `bun:"created_at,notnull" json:"created_at"`
}

type BillItem struct {
	bun.BaseModel `bun:"table:bill_items,alias:bill_item"`

	ID       int64           `bun:"id,pk,autoincrement" json:"id"`
	BillID   int64           `bun:"bill_id,notnull" json:"bill_id"`
	ItemName string          `bun:"item_name,notnull" json:"item_name"`
	Quantity decimal.Decimal `bun:"quantity,type:decimal(10,2),notnull" json:"quantity"`
	Rate     decimal.Decimal `bun:"rate,type:decimal(10,2),notnull" json:"rate"`
	Amount   decimal.Decimal `bun:"amount,type:decimal(10,2),notnull" json:"amount"`
}

type BillFilter struct {
	Date     time.Time
	Customer string
}
