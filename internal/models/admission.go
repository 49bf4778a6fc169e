package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Admission struct {
	bun.BaseModel `bun:"table:admissions,alias:admission"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	FormNo        string          `bun:"form_no,notnull,unique" json:"form_no"`
	AdmissionDate time.Time       `bun:"admission_date,notnull" json:"admission_date"`
	CourseName    string          `bun:"course_name,notnull" json:"course_name"`
	Batch         string          `bun:"batch,notnull" json:"batch"`
	FirstName     string          `bun:"first_name,notnull" json:"first_name"`
	MiddleName    string          `bun:"middle_name" json:"middle_name"`
	LastName      string          `bun:"last_name,notnull" json:"last_name"`
	BirthDate     time.Time       `bun:"birth_date,notnull" json:"birth_date"`
	MobileOwn     string          `bun:"mobile_own,notnull" json:"mobile_own"`
	MobileParents string          `bun:"mobile_parents" json:"mobile_parents,omitempty"`
	Address       string          `bun:"address,notnull" json:"address"`
	Qualification string          `bun:"qualification,notnull" json:"qualification"`
	Installments  int             `bun:"installments,notnull" json:"installments"`
	PhotoPath     string          `bun:"photo_path" json:"photo_path,omitempty"`
	TotalFee      decimal.Decimal `bun:"total_fee,type:decimal(10,2),notnull" json:"total_fee"`
	PaidFee       decimal.Decimal `bun:"paid_fee,type:decimal(10,2),notnull" json:"paid_fee"`
	IsActive      bool            `bun:"is_active,notnull" json:"is_active"`
	CreatedBy     int64           `bun:"created_by,nullzero" json:"created_by,omitempty"`
	CreatedAt     time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

func (a *Admission) FullName() string {
	parts := []string{a.FirstName}
	if a.MiddleName != "" {
		parts = append(parts, a.MiddleName)
	}
	parts = append(parts, a.LastName)
	return strings.Join(parts, " ")
}

// RemainingFee is total_fee - paid_fee.
func (a *Admission) RemainingFee() decimal.Decimal {
	return a.TotalFee.Sub(a.PaidFee)
}

type AdmissionFilter struct {
	Batch  string
	Course string
	Active *bool
	Search string
}
