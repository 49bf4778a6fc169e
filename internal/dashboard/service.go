// Package dashboard summarises the office's day: enquiries, admissions, fee collections,
// outstanding balances and retail billing.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"ms-backoffice/internal/utils"

	"github.com/shopspring/decimal"
)

// TrendDays is the number of days covered by Summary.DailyCollections
const TrendDays = 7

// Service handles dashboard queries
type Service struct {
	db       *DB
	location *time.Location
	Now      func() time.Time
}

// NewService creates a new dashboard service
func NewService(db *DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, location: loc, Now: time.Now}
}

// Summary is the dashboard payload
type Summary struct {
	Date                string            `json:"date"`
	EnquiriesToday      int               `json:"enquiries_today"`
	AdmissionsThisYear  int               `json:"admissions_this_year"`
	ActiveAdmissions    int               `json:"active_admissions"`
	CollectionToday     decimal.Decimal   `json:"collection_today"`
	CollectionThisMonth decimal.Decimal   `json:"collection_this_month"`
	Outstanding         decimal.Decimal   `json:"outstanding"`
	BillsToday          int               `json:"bills_today"`
	BillsTotalToday     decimal.Decimal   `json:"bills_total_today"`
	DailyCollections    []DailyCollection `json:"daily_collections"`
}

// DailyCollection is the fee collected on one office-local day
type DailyCollection struct {
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Payments int             `json:"payments"`
}

// Summary computes the dashboard for the current office day
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	now := s.Now().In(s.location)
	today := utils.CivilDate(now, s.location)
	out := &Summary{Date: today.Format(utils.DateLayout)}

	var err error
	if out.EnquiriesToday, err = s.db.CountEnquiriesOn(ctx, today); err != nil {
		return nil, fmt.Errorf("count enquiries: %w", err)
	}

	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if out.AdmissionsThisYear, err = s.db.CountAdmissionsBetween(ctx, yearStart, yearStart.AddDate(1, 0, 0)); err != nil {
		return nil, fmt.Errorf("count admissions: %w", err)
	}
	if out.ActiveAdmissions, err = s.db.CountActiveAdmissions(ctx); err != nil {
		return nil, fmt.Errorf("count active admissions: %w", err)
	}

	dayStart, dayEnd := utils.DayBounds(now, s.location)
	if out.CollectionToday, err = s.db.CollectedBetween(ctx, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("sum collections: %w", err)
	}
	monthStart, monthEnd := utils.MonthBounds(now, s.location)
	if out.CollectionThisMonth, err = s.db.CollectedBetween(ctx, monthStart, monthEnd); err != nil {
		return nil, fmt.Errorf("sum collections: %w", err)
	}
	if out.Outstanding, err = s.db.Outstanding(ctx); err != nil {
		return nil, fmt.Errorf("sum outstanding: %w", err)
	}
	if out.BillsToday, out.BillsTotalToday, err = s.db.BillsOn(ctx, today); err != nil {
		return nil, fmt.Errorf("sum bills: %w", err)
	}
	if out.DailyCollections, err = s.dailyCollections(ctx, dayStart, dayEnd); err != nil {
		return nil, err
	}
	return out, nil
}

// dailyCollections buckets the last TrendDays days of payments by office-local date, oldest first
func (s *Service) dailyCollections(ctx context.Context, todayStart, todayEnd time.Time) ([]DailyCollection, error) {
	from := todayStart.AddDate(0, 0, -(TrendDays - 1))
	payments, err := s.db.PaymentsBetween(ctx, from, todayEnd)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	days := make([]DailyCollection, TrendDays)
	index := make(map[string]int, TrendDays)
	for i := range days {
		key := from.AddDate(0, 0, i).Format(utils.DateLayout)
		days[i] = DailyCollection{Date: key, Amount: decimal.Zero}
		index[key] = i
	}
	for _, p := range payments {
		if i, ok := index[p.PaidAt.In(s.location).Format(utils.DateLayout)]; ok {
			days[i].Amount = days[i].Amount.Add(p.Amount)
			days[i].Payments++
		}
	}
	return days, nil
}
