package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Enquiry struct {
	bun.BaseModel `bun:"table:enquiries,alias:enquiry"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	EnquiryNo   string    `bun:"enquiry_no,notnull,unique" json:"enquiry_no"`
	StudentName string    `bun:"student_name,notnull" json:"student_name"`
	MobileNo    string    `bun:"mobile_no,notnull" json:"mobile_no"`
	Course      string    `bun:"course,notnull" json:"course"`
	Address     string    `bun:"address,notnull" json:"address"`
	EnquiryDate time.Time `bun:"enquiry_date,notnull" json:"enquiry_date"`
	CreatedBy   int64     `bun:"created_by,nullzero" json:"created_by,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type EnquiryFilter struct {
	Date   *time.Time
	Course string
	Search string
}
