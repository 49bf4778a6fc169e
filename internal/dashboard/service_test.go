package dashboard

import (
	"context"
	"testing"
	"time"

	"ms-backoffice/internal/database/dbtest"
	"ms-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func insert(t *testing.T, db *bun.DB, model interface{}) {
	_, err := db.NewInsert().Model(model).Exec(context.Background())
	require.NoError(t, err)
}

func admission(formNo string, date time.Time, total, paid int64, active bool) *models.Admission {
	return &models.Admission{
		FormNo: formNo, AdmissionDate: date, CourseName: "MS-CIT", Batch: "2025-01",
		FirstName: "A", LastName: "B", BirthDate: time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC),
		MobileOwn: "9876543210", Address: "Pune", Qualification: "SSC", Installments: 1,
		TotalFee: decimal.NewFromInt(total), PaidFee: decimal.NewFromInt(paid), IsActive: active,
		CreatedAt: date, UpdatedAt: date,
	}
}

func TestSummary(t *testing.T) {
	db := dbtest.NewSQLite(t)
	// 20:00 UTC on 14 Jan is 01:30 on 15 Jan in IST.
	now := time.Date(2025, 1, 14, 20, 0, 0, 0, time.UTC)
	today := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	insert(t, db, &models.Enquiry{EnquiryNo: "ENQ20250115001", StudentName: "X", MobileNo: "9876543210",
		Course: "IOT", Address: "Pune", EnquiryDate: today, CreatedAt: now, UpdatedAt: now})
	insert(t, db, &models.Enquiry{EnquiryNo: "ENQ20250114001", StudentName: "Y", MobileNo: "9876543210",
		Course: "IOT", Address: "Pune", EnquiryDate: today.AddDate(0, 0, -1), CreatedAt: now, UpdatedAt: now})

	active := admission("SSC20250001", today, 5000, 3000, true)
	insert(t, db, active)
	insert(t, db, admission("SSC20250002", today, 4000, 0, false))
	insert(t, db, admission("SSC20240009", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), 3000, 500, true))

	payments := []*models.Payment{
		// 19:00 UTC on the 14th is the 15th in IST
		{ReceiptNo: "RCP202500001", AdmissionID: active.ID, Amount: decimal.NewFromInt(2000), Mode: models.ModeCash,
			PaidAt: time.Date(2025, 1, 14, 19, 0, 0, 0, time.UTC), CreatedAt: now},
		// 10:00 UTC on the 14th is still the 14th in IST
		{ReceiptNo: "RCP202500002", AdmissionID: active.ID, Amount: decimal.RequireFromString("1000.50"), Mode: models.ModeUPI,
			PaidAt: time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC), CreatedAt: now},
	}
	for _, p := range payments {
		insert(t, db, p)
	}
	insert(t, db, &models.Bill{ReceiptNo: "BILL20250115001", BillDate: today, CustomerName: "C",
		CustomerMobile: "9876543210", TotalAmount: decimal.RequireFromString("150.50"), CreatedAt: now})

	svc := NewService(NewDB(db), ist)
	svc.Now = func() time.Time { return now }

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025-01-15", s.Date)
	assert.Equal(t, 1, s.EnquiriesToday)
	assert.Equal(t, 2, s.AdmissionsThisYear)
	assert.Equal(t, 2, s.ActiveAdmissions)
	assert.Equal(t, "2000.00", s.CollectionToday.StringFixed(2))
	assert.Equal(t, "3000.50", s.CollectionThisMonth.StringFixed(2))
	assert.Equal(t, "4500.00", s.Outstanding.StringFixed(2))
	assert.Equal(t, 1, s.BillsToday)
	assert.Equal(t, "150.50", s.BillsTotalToday.StringFixed(2))

	require.Len(t, s.DailyCollections, TrendDays)
	last := s.DailyCollections[TrendDays-1]
	assert.Equal(t, "2025-01-15", last.Date)
	assert.Equal(t, 1, last.Payments)
	prev := s.DailyCollections[TrendDays-2]
	assert.Equal(t, "2025-01-14", prev.Date)
	assert.Equal(t, "1000.50", prev.Amount.StringFixed(2))
}

func TestSummaryOnEmptyDatabase(t *testing.T) {
	svc := NewService(NewDB(dbtest.NewSQLite(t)), time.UTC)
	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Outstanding.IsZero())
	assert.True(t, s.CollectionToday.IsZero())
	assert.Len(t, s.DailyCollections, TrendDays)
}
