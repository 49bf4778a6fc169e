package sequence_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/database/dbtest"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/sequence"
	"ms-backoffice/internal/sequence/db"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var day = time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)

func TestFormat(t *testing.T) {
	cases := []struct {
		kind sequence.Kind
		seq  int64
		want string
	}{
		{sequence.KindEnquiry, 7, "ENQ20250114007"},
		{sequence.KindAdmission, 42, "SSC20250042"},
		{sequence.KindPayment, 123, "RCP202500123"},
		{sequence.KindBill, 2, "BILL20250114002"},
		{sequence.KindEnquiry, 1000, "ENQ202501141000"},
	}
	for _, c := range cases {
		got, err := sequence.Format(c.kind, day, c.seq)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestNextUsesExistingCount(t *testing.T) {
	got, err := sequence.Next(sequence.KindEnquiry, day, 6)
	require.NoError(t, err)
	assert.Equal(t, "ENQ20250114007", got)

	got, err = sequence.Next(sequence.KindAdmission, day, 0)
	require.NoError(t, err)
	assert.Equal(t, "SSC20250001", got)
}

func TestFormatRejectsUnknownKindAndZero(t *testing.T) {
	_, err := sequence.Format("voucher", day, 1)
	assert.True(t, apperr.IsValidation(err))

	_, err = sequence.Format(sequence.KindBill, day, 0)
	assert.True(t, apperr.IsValidation(err))
}

func newAllocator(t *testing.T) (*sequence.Allocator, *bun.DB) {
	bunDB := dbtest.NewSQLite(t)
	return sequence.NewAllocator(&db.DB{Bun: bunDB}, time.UTC, logger.NewDiscard()), bunDB
}

func TestAllocateIncrementsPerWindow(t *testing.T) {
	alloc, bunDB := newAllocator(t)
	ctx := context.Background()

	first, err := alloc.Allocate(ctx, bunDB, sequence.KindEnquiry, day)
	require.NoError(t, err)
	second, err := alloc.Allocate(ctx, bunDB, sequence.KindEnquiry, day)
	require.NoError(t, err)
	nextDay, err := alloc.Allocate(ctx, bunDB, sequence.KindEnquiry, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, "ENQ20250114001", first)
	assert.Equal(t, "ENQ20250114002", second)
	assert.Equal(t, "ENQ20250115001", nextDay)

	peek, err := alloc.Peek(ctx, sequence.KindEnquiry, day)
	require.NoError(t, err)
	assert.Equal(t, "ENQ20250114003", peek)
}

func TestAllocateUsesOfficeTimezone(t *testing.T) {
	bunDB := dbtest.NewSQLite(t)
	ist := time.FixedZone("IST", 5*3600+1800)
	alloc := sequence.NewAllocator(&db.DB{Bun: bunDB}, ist, logger.NewDiscard())

	// 31 Dec 20:00 UTC is already 1 Jan in the office.
	id, err := alloc.Allocate(context.Background(), bunDB, sequence.KindAdmission, time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "SSC20250001", id)
}

func TestRolledBackAllocationIsReleased(t *testing.T) {
	alloc, bunDB := newAllocator(t)
	ctx := context.Background()

	errAbort := errors.New("abort")
	err := bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := alloc.Allocate(ctx, tx, sequence.KindBill, day)
		require.NoError(t, err)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	id, err := alloc.Allocate(ctx, bunDB, sequence.KindBill, day)
	require.NoError(t, err)
	assert.Equal(t, "BILL20250114001", id)
}

func TestConcurrentAllocationsAreUniqueAndContiguous(t *testing.T) {
	alloc, bunDB := newAllocator(t)
	ctx := context.Background()

	const workers = 20
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				id, err := alloc.Allocate(ctx, tx, sequence.KindPayment, day)
				ids[i] = id
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sort.Strings(ids)
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("RCP2025%05d", i+1), id)
	}
}

func legacyEnquiry(t *testing.T, bunDB *bun.DB, no string) {
	t.Helper()
	_, err := bunDB.NewInsert().Model(&models.Enquiry{
		EnquiryNo:   no,
		StudentName: "Imported",
		MobileNo:    "9876543210",
		Course:      "MS-CIT",
		Address:     "Pune",
		EnquiryDate: day,
		CreatedAt:   day,
		UpdatedAt:   day,
	}).Exec(context.Background())
	require.NoError(t, err)
}

func insertEnquiry(alloc *sequence.Allocator, bunDB *bun.DB, got *string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			no, err := alloc.Allocate(ctx, tx, sequence.KindEnquiry, day)
			if err != nil {
				return err
			}
			*got = no
			_, err = tx.NewInsert().Model(&models.Enquiry{
				EnquiryNo:   no,
				StudentName: "Meera",
				MobileNo:    "9822012345",
				Course:      "TALLY",
				Address:     "Nashik",
				EnquiryDate: day,
				CreatedAt:   day,
				UpdatedAt:   day,
			}).Exec(ctx)
			return err
		})
	}
}

func TestWithRetrySkipsImportedIdentifiers(t *testing.T) {
	alloc, bunDB := newAllocator(t)
	ctx := context.Background()
	legacyEnquiry(t, bunDB, "ENQ20250114001")
	legacyEnquiry(t, bunDB, "ENQ20250114002")

	var got string
	require.NoError(t, alloc.WithRetry(ctx, sequence.KindEnquiry, day, insertEnquiry(alloc, bunDB, &got)))
	assert.Equal(t, "ENQ20250114003", got)

	peek, err := alloc.Peek(ctx, sequence.KindEnquiry, day)
	require.NoError(t, err)
	assert.Equal(t, "ENQ20250114004", peek)
}

func TestResyncPrefersLongerIdentifiers(t *testing.T) {
	alloc, bunDB := newAllocator(t)
	ctx := context.Background()
	legacyEnquiry(t, bunDB, "ENQ20250114999")
	legacyEnquiry(t, bunDB, "ENQ202501141000")

	floor, err := alloc.Resync(ctx, sequence.KindEnquiry, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), floor)

	// Resync never lowers a counter that is already ahead.
	_, err = bunDB.NewDelete().Model((*models.Enquiry)(nil)).Where("enquiry_no = ?", "ENQ202501141000").Exec(ctx)
	require.NoError(t, err)
	_, err = alloc.Resync(ctx, sequence.KindEnquiry, day)
	require.NoError(t, err)
	id, err := alloc.Allocate(ctx, bunDB, sequence.KindEnquiry, day)
	require.NoError(t, err)
	assert.Equal(t, "ENQ202501141001", id)
}

func TestWithRetryGivesUpAndPassesOtherErrors(t *testing.T) {
	alloc, _ := newAllocator(t)
	ctx := context.Background()
	dup := &pq.Error{Code: "23505"}

	calls := 0
	err := alloc.WithRetry(ctx, sequence.KindBill, day, func(ctx context.Context) error {
		calls++
		return dup
	})
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, sequence.MaxAttempts, calls)

	other := errors.New("disk full")
	err = alloc.WithRetry(ctx, sequence.KindBill, day, func(ctx context.Context) error { return other })
	assert.ErrorIs(t, err, other)
}
