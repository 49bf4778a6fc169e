// Package sequence formats and allocates the office's human-readable identifiers
// (enquiry numbers, admission form numbers, payment and bill receipt numbers).
//
// Each kind has a prefix, a window (calendar day or year) and a zero-padded counter that
// restarts in every window. Counters live in the sequences table and are incremented with a
// single upsert inside the caller's transaction.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/sequence/db"

	"github.com/uptrace/bun"
)

type Kind string

const (
	KindEnquiry   Kind = "enquiry"
	KindAdmission Kind = "admission"
	KindPayment   Kind = "payment"
	KindBill      Kind = "bill"
)

type window int

const (
	daily window = iota
	yearly
)

type scheme struct {
	prefix string
	window window
	width  int
	// table and column hold the issued identifiers.
	table  string
	column string
}

var schemes = map[Kind]scheme{
	KindEnquiry:   {prefix: "ENQ", window: daily, width: 3, table: "enquiries", column: "enquiry_no"},
	KindAdmission: {prefix: "SSC", window: yearly, width: 4, table: "admissions", column: "form_no"},
	KindPayment:   {prefix: "RCP", window: yearly, width: 5, table: "payments", column: "receipt_no"},
	KindBill:      {prefix: "BILL", window: daily, width: 3, table: "bills", column: "receipt_no"},
}

func lookup(kind Kind) (scheme, error) {
	s, ok := schemes[kind]
	if !ok {
		return scheme{}, apperr.Invalid("kind", fmt.Sprintf("unknown identifier kind %q", kind))
	}
	return s, nil
}

// WindowKey is YYYYMMDD for daily kinds and YYYY for yearly kinds.
func WindowKey(kind Kind, t time.Time) (string, error) {
	s, err := lookup(kind)
	if err != nil {
		return "", err
	}
	if s.window == yearly {
		return t.Format("2006"), nil
	}
	return t.Format("20060102"), nil
}

// Format renders seq for the window containing t. Numbers wider than the pad are not truncated.
func Format(kind Kind, t time.Time, seq int64) (string, error) {
	s, err := lookup(kind)
	if err != nil {
		return "", err
	}
	if seq < 1 {
		return "", apperr.Invalid("sequence", "sequence must be at least 1")
	}
	key, _ := WindowKey(kind, t)
	return fmt.Sprintf("%s%s%0*d", s.prefix, key, s.width, seq), nil
}

// Next returns the identifier following existingCount identifiers already issued in the window.
func Next(kind Kind, t time.Time, existingCount int64) (string, error) {
	return Format(kind, t, existingCount+1)
}

// Allocator hands out identifiers backed by the sequences table.
type Allocator struct {
	DB       *db.DB
	Location *time.Location
	Logger   *logger.Logger
}

func NewAllocator(store *db.DB, loc *time.Location, log *logger.Logger) *Allocator {
	if loc == nil {
		loc = time.UTC
	}
	return &Allocator{DB: store, Location: loc, Logger: log}
}

// Allocate reserves the next identifier of kind inside tx. The number is released again if tx
// rolls back.
func (a *Allocator) Allocate(ctx context.Context, tx bun.IDB, kind Kind, now time.Time) (string, error) {
	local := now.In(a.Location)
	key, err := WindowKey(kind, local)
	if err != nil {
		return "", err
	}
	seq, err := a.DB.Increment(ctx, tx, string(kind), key)
	if err != nil {
		return "", fmt.Errorf("allocate %s identifier: %w", kind, err)
	}
	id, err := Format(kind, local, seq)
	if err != nil {
		return "", err
	}
	if a.Logger != nil {
		a.Logger.LogSequence(string(kind), id)
	}
	return id, nil
}

// Peek returns the identifier the next allocation would produce without reserving it.
func (a *Allocator) Peek(ctx context.Context, kind Kind, now time.Time) (string, error) {
	local := now.In(a.Location)
	key, err := WindowKey(kind, local)
	if err != nil {
		return "", err
	}
	current, err := a.DB.Current(ctx, string(kind), key)
	if err != nil {
		return "", fmt.Errorf("peek %s identifier: %w", kind, err)
	}
	return Next(kind, local, current)
}

// Resync moves the counter of the window containing now past the highest identifier already
// stored, in its own committed statement, and returns the counter's floor. Rows inserted by hand
// are the usual cause of a collision.
func (a *Allocator) Resync(ctx context.Context, kind Kind, now time.Time) (int64, error) {
	s, err := lookup(kind)
	if err != nil {
		return 0, err
	}
	local := now.In(a.Location)
	key, _ := WindowKey(kind, local)

	highest, err := a.DB.HighestIdentifier(ctx, s.table, s.column, s.prefix+key)
	if err != nil {
		return 0, fmt.Errorf("find highest %s identifier: %w", kind, err)
	}
	if highest == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(highest, s.prefix+key), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stored %s identifier %q has no numeric suffix", kind, highest)
	}
	if err := a.DB.RaiseTo(ctx, string(kind), key, seq); err != nil {
		return 0, fmt.Errorf("resync %s counter: %w", kind, err)
	}
	return seq, nil
}
