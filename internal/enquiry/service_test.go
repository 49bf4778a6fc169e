package enquiry_test

import (
	"context"
	"testing"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/audit"
	"ms-backoffice/internal/auth"
	"ms-backoffice/internal/database/dbtest"
	"ms-backoffice/internal/enquiry"
	"ms-backoffice/internal/enquiry/db"
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/sequence"
	seqdb "ms-backoffice/internal/sequence/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event, key string, data interface{}) error {
	return m.Called(event, key).Error(0)
}

var ist = time.FixedZone("IST", 5*3600+1800)

// 23:00 UTC on the 13th is already the 14th in IST.
var fixedNow = time.Date(2025, 1, 13, 23, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*enquiry.Service, *bun.DB, *MockPublisher) {
	bunDB := dbtest.NewSQLite(t)
	log := logger.NewDiscard()
	pub := &MockPublisher{}
	pub.On("Publish", kafka.EventEnquiryCreated, mock.Anything).Return(nil)

	alloc := sequence.NewAllocator(&seqdb.DB{Bun: bunDB}, ist, log)
	svc := enquiry.NewService(&db.DB{Bun: bunDB}, alloc, audit.New(bunDB), pub, ist, log)
	svc.Now = func() time.Time { return fixedNow }
	return svc, bunDB, pub
}

func input(name, mobile, course string) enquiry.Input {
	return enquiry.Input{StudentName: name, MobileNo: mobile, Course: course, Address: "Shivaji Nagar, Pune"}
}

func TestCreateAllocatesDailyNumbers(t *testing.T) {
	svc, _, pub := newService(t)
	ctx := auth.WithOperator(context.Background(), auth.Operator{ID: 3})

	first, err := svc.Create(ctx, input("Ravi Kale", "9876543210", "MS-CIT"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, input("Meera Joshi", "9123456780", "TALLY"))
	require.NoError(t, err)

	assert.Equal(t, "ENQ20250114001", first.EnquiryNo)
	assert.Equal(t, "ENQ20250114002", second.EnquiryNo)
	assert.Equal(t, time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), first.EnquiryDate)
	assert.Equal(t, int64(3), first.CreatedBy)
	pub.AssertNumberOfCalls(t, "Publish", 2)

	next, err := svc.NextNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ENQ20250114003", next)
}

func TestCreateValidation(t *testing.T) {
	svc, _, pub := newService(t)

	_, err := svc.Create(context.Background(), input("", "98765", "PYTHON"))
	require.Error(t, err)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	in := input("Ravi", "9876543210", "IOT")
	in.EnquiryDate = "14/01/2025"
	_, err = svc.Create(context.Background(), in)
	assert.True(t, apperr.IsValidation(err))

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	older := input("Asha Patil", "9000000001", "TALLY")
	older.EnquiryDate = "2025-01-10"
	_, err := svc.Create(ctx, older)
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("Ravi Kale", "9000000002", "MS-CIT"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("Ravina More", "9000000003", "TALLY"))
	require.NoError(t, err)

	all, err := svc.List(ctx, models.EnquiryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Ravina More", all[0].StudentName, "newest first")

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	byDate, err := svc.List(ctx, models.EnquiryFilter{Date: &day})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "Asha Patil", byDate[0].StudentName)

	tally, err := svc.List(ctx, models.EnquiryFilter{Course: "TALLY"})
	require.NoError(t, err)
	assert.Len(t, tally, 2)

	search, err := svc.List(ctx, models.EnquiryFilter{Search: "RAVI"})
	require.NoError(t, err)
	assert.Len(t, search, 2)

	byMobile, err := svc.List(ctx, models.EnquiryFilter{Search: "0003"})
	require.NoError(t, err)
	assert.Len(t, byMobile, 1)

	_, err = svc.List(ctx, models.EnquiryFilter{Course: "COBOL"})
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateKeepsNumberAndDeleteIsAudited(t *testing.T) {
	svc, bunDB, _ := newService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, input("Ravi Kale", "9876543210", "MS-CIT"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, e.EnquiryNo, input("Ravi S Kale", "9876543210", "ADVANCE_EXCEL"))
	require.NoError(t, err)
	assert.Equal(t, e.EnquiryNo, updated.EnquiryNo)
	assert.Equal(t, e.EnquiryDate, updated.EnquiryDate)

	got, err := svc.Get(ctx, e.EnquiryNo)
	require.NoError(t, err)
	assert.Equal(t, "ADVANCE_EXCEL", got.Course)

	require.NoError(t, svc.Delete(ctx, e.EnquiryNo))
	_, err = svc.Get(ctx, e.EnquiryNo)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, e.EnquiryNo)))

	entries, err := audit.New(bunDB).ForEntity(ctx, "enquiry", e.EnquiryNo)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, audit.ActionDelete, entries[2].Action)
}
