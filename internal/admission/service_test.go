package admission_test

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ms-backoffice/internal/admission"
	"ms-backoffice/internal/admission/db"
	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/audit"
	"ms-backoffice/internal/database/dbtest"
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/ledger"
	ledgerdb "ms-backoffice/internal/ledger/db"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/sequence"
	seqdb "ms-backoffice/internal/sequence/db"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
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

var fixedNow = time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *admission.Service
	ledger *ledger.Service
	db     *bun.DB
	pub    *MockPublisher
	media  string
}

func newFixture(t *testing.T) *fixture {
	bunDB := dbtest.NewSQLite(t)
	log := logger.NewDiscard()
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	media := t.TempDir()
	alloc := sequence.NewAllocator(&seqdb.DB{Bun: bunDB}, time.UTC, log)
	trail := audit.New(bunDB)
	svc := admission.NewService(&db.DB{Bun: bunDB}, alloc, trail, pub,
		admission.NewPhotoStore(media, 5<<20, 600, 600), time.UTC, decimal.RequireFromString("5000.00"), log)
	svc.Now = func() time.Time { return fixedNow }

	led := ledger.NewService(&ledgerdb.DB{Bun: bunDB}, alloc, nil, trail, kafka.NopPublisher{}, nil, log)
	led.Now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, ledger: led, db: bunDB, pub: pub, media: media}
}

func validInput() admission.Input {
	return admission.Input{
		CourseName:    "MS-CIT",
		Batch:         "2025-06",
		FirstName:     "Ravi",
		MiddleName:    "S",
		LastName:      "Kale",
		BirthDate:     "2006-04-12",
		MobileOwn:     "9876543210",
		Address:       "Kothrud, Pune",
		Qualification: "SSC",
		Installments:  2,
	}
}

func TestCreateAssignsFormNumbersAndDefaultFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, "SSC20250001", first.FormNo)
	assert.Equal(t, "SSC20250002", second.FormNo)
	assert.True(t, decimal.RequireFromString("5000").Equal(first.TotalFee))
	assert.True(t, first.PaidFee.IsZero())
	assert.True(t, first.IsActive)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), first.AdmissionDate)
	assert.Equal(t, "Ravi S Kale", first.FullName())
	f.pub.AssertCalled(t, "Publish", kafka.EventAdmissionCreated, "SSC20250001")
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(in *admission.Input){
		"batch month":   func(in *admission.Input) { in.Batch = "2025-13" },
		"installments":  func(in *admission.Input) { in.Installments = 3 },
		"parent mobile": func(in *admission.Input) { in.MobileParents = "12345" },
		"course":        func(in *admission.Input) { in.CourseName = "PYTHON" },
		"birth after":   func(in *admission.Input) { in.BirthDate = "2025-07-01" },
		"birth format":  func(in *admission.Input) { in.BirthDate = "12/04/2006" },
		"negative fee":  func(in *admission.Input) { fee := decimal.NewFromInt(-1); in.TotalFee = &fee },
		"fee precision": func(in *admission.Input) { fee := decimal.RequireFromString("10.005"); in.TotalFee = &fee },
		"missing names": func(in *admission.Input) { in.FirstName = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := f.svc.Create(ctx, in)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestUpdateRejectsTotalBelowPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = f.ledger.RecordPayment(ctx, a.FormNo, ledger.PaymentInput{Amount: decimal.NewFromInt(3000), Mode: models.ModeCash})
	require.NoError(t, err)

	in := validInput()
	low := decimal.NewFromInt(2500)
	in.TotalFee = &low
	_, err = f.svc.Update(ctx, a.FormNo, in)
	assert.True(t, apperr.IsViolation(err))
	assert.ErrorIs(t, err, apperr.ErrFeeBelowPaid)

	exact := decimal.NewFromInt(3000)
	in.TotalFee = &exact
	in.Address = "Baner, Pune"
	updated, err := f.svc.Update(ctx, a.FormNo, in)
	require.NoError(t, err)
	assert.True(t, updated.RemainingFee().IsZero())
	assert.Equal(t, a.FormNo, updated.FormNo)

	got, err := f.svc.Get(ctx, a.FormNo)
	require.NoError(t, err)
	assert.Equal(t, "Baner, Pune", got.Address)
	assert.True(t, decimal.NewFromInt(3000).Equal(got.PaidFee))
}

func TestUpdateTotalToFractionalPaidFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput()
	one := decimal.RequireFromString("1.00")
	in.TotalFee = &one
	a, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	for _, amt := range []string{"0.10", "0.20"} {
		_, err = f.ledger.RecordPayment(ctx, a.FormNo, ledger.PaymentInput{Amount: decimal.RequireFromString(amt), Mode: models.ModeUPI})
		require.NoError(t, err)
	}

	exact := decimal.RequireFromString("0.30")
	in.TotalFee = &exact
	updated, err := f.svc.Update(ctx, a.FormNo, in)
	require.NoError(t, err)
	assert.True(t, updated.RemainingFee().IsZero(), updated.RemainingFee().String())

	below := decimal.RequireFromString("0.29")
	in.TotalFee = &below
	_, err = f.svc.Update(ctx, a.FormNo, in)
	assert.ErrorIs(t, err, apperr.ErrFeeBelowPaid)
}

func TestDeactivateBlocksPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	out, err := f.svc.Deactivate(ctx, a.FormNo)
	require.NoError(t, err)
	assert.False(t, out.IsActive)

	_, err = f.ledger.RecordPayment(ctx, a.FormNo, ledger.PaymentInput{Amount: decimal.NewFromInt(100), Mode: models.ModeCash})
	assert.ErrorIs(t, err, apperr.ErrAdmissionInactive)

	inactive := false
	list, err := f.svc.List(ctx, models.AdmissionFilter{Active: &inactive})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	other := validInput()
	other.FirstName, other.LastName, other.MiddleName = "Meera", "Joshi", ""
	other.CourseName, other.Batch, other.MobileOwn = "TALLY", "2025-07", "9123456780"
	_, err = f.svc.Create(ctx, other)
	require.NoError(t, err)

	byBatch, err := f.svc.List(ctx, models.AdmissionFilter{Batch: "2025-07"})
	require.NoError(t, err)
	require.Len(t, byBatch, 1)
	assert.Equal(t, "Meera", byBatch[0].FirstName)

	byCourse, err := f.svc.List(ctx, models.AdmissionFilter{Course: "MS-CIT"})
	require.NoError(t, err)
	assert.Len(t, byCourse, 1)

	byMobile, err := f.svc.List(ctx, models.AdmissionFilter{Search: "91234"})
	require.NoError(t, err)
	assert.Len(t, byMobile, 1)

	byForm, err := f.svc.List(ctx, models.AdmissionFilter{Search: "ssc2025"})
	require.NoError(t, err)
	assert.Len(t, byForm, 2)
}

func TestUploadPhotoResizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(1200, 900, color.NRGBA{R: 200, A: 255})))

	out, err := f.svc.UploadPhoto(ctx, a.FormNo, &buf)
	require.NoError(t, err)
	assert.Equal(t, "photos/SSC20250001.jpg", out.PhotoPath)

	img, err := imaging.Open(filepath.Join(f.media, out.PhotoPath))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 450, img.Bounds().Dy())

	_, err = f.svc.UploadPhoto(ctx, a.FormNo, bytes.NewBufferString("plain text, not an image"))
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.UploadPhoto(ctx, "SSC20259999", &buf)
	assert.True(t, apperr.IsNotFound(err))
}

func TestPhotoTooLarge(t *testing.T) {
	store := admission.NewPhotoStore(t.TempDir(), 1024, 600, 600)
	_, err := store.Save("SSC20250001", bytes.NewReader(make([]byte, 2048)))
	assert.True(t, apperr.IsValidation(err))
}

func TestDeleteCascadesPaymentsAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)
	for _, amount := range []int64{1000, 1500} {
		_, err := f.ledger.RecordPayment(ctx, a.FormNo, ledger.PaymentInput{Amount: decimal.NewFromInt(amount), Mode: models.ModeUPI})
		require.NoError(t, err)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(10, 10, color.NRGBA{A: 255})))
	withPhoto, err := f.svc.UploadPhoto(ctx, a.FormNo, &buf)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.FormNo))

	count, err := f.db.NewSelect().Model((*models.Payment)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = f.svc.Get(ctx, a.FormNo)
	assert.True(t, apperr.IsNotFound(err))
	_, statErr := os.Stat(filepath.Join(f.media, withPhoto.PhotoPath))
	assert.True(t, os.IsNotExist(statErr))

	entries, err := audit.New(f.db).ForEntity(ctx, "admission", a.FormNo)
	require.NoError(t, err)
	var last models.AuditEntry
	for _, e := range entries {
		if e.Action == audit.ActionDelete {
			last = e
		}
	}
	require.Equal(t, audit.ActionDelete, last.Action)
	payments, ok := last.Detail["payments"].([]interface{})
	require.True(t, ok)
	assert.Len(t, payments, 2)

	f.pub.AssertCalled(t, "Publish", kafka.EventAdmissionDeleted, a.FormNo)
	assert.True(t, apperr.IsNotFound(f.svc.Delete(ctx, a.FormNo)))
}
