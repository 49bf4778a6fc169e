package server

import (
	"fmt"
	"net/http"

	"ms-backoffice/internal/admission"
	admissiondb "ms-backoffice/internal/admission/db"
	"ms-backoffice/internal/admission/admission_api"
	"ms-backoffice/internal/audit"
	"ms-backoffice/internal/auth"
	authdb "ms-backoffice/internal/auth/db"
	"ms-backoffice/internal/auth/auth_api"
	"ms-backoffice/internal/billing"
	"ms-backoffice/internal/billing/billing_api"
	billingdb "ms-backoffice/internal/billing/db"
	"ms-backoffice/internal/config"
	"ms-backoffice/internal/dashboard"
	"ms-backoffice/internal/dashboard/dashboard_api"
	"ms-backoffice/internal/enquiry"
	enquirydb "ms-backoffice/internal/enquiry/db"
	"ms-backoffice/internal/enquiry/enquiry_api"
	"ms-backoffice/internal/kafka"
	"ms-backoffice/internal/ledger"
	ledgerdb "ms-backoffice/internal/ledger/db"
	"ms-backoffice/internal/ledger/ledger_api"
	"ms-backoffice/internal/ledger/lock"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/receipt"
	"ms-backoffice/internal/receipt/receipt_api"
	"ms-backoffice/internal/sequence"
	seqdb "ms-backoffice/internal/sequence/db"
	"ms-backoffice/internal/sse"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
)

// Deps are the connections opened by main. Redis may be nil.
type Deps struct {
	Config    *config.Config
	DB        *bun.DB
	Redis     *redis.Client
	Publisher kafka.Publisher
	Logger    *logger.Logger
}

// App is the wired back office.
type App struct {
	Handler http.Handler
	Feed    *sse.PaymentFeed
}

func NewApp(d Deps) (*App, error) {
	cfg, log := d.Config, d.Logger
	loc := cfg.Office.Location()
	if d.Publisher == nil {
		d.Publisher = kafka.NopPublisher{}
	}

	var locker lock.Locker = lock.NopLocker{}
	var deny auth.DenyList = auth.NewMemoryDenyList()
	if d.Redis != nil {
		locker = lock.NewRedisLocker(d.Redis, cfg.Redis.LockTTL, cfg.Redis.LockWait)
		deny = auth.NewRedisDenyList(d.Redis, cfg.Redis.DenyKeyPrefix)
		log.Info("REDIS", "Payment lock and token deny-list backed by Redis")
	} else {
		log.Warn("REDIS", "REDIS_ADDR not set, using in-process deny-list and no payment lock")
	}

	codec, err := receipt.NewCodec(cfg.PDF.QRSecretKey)
	if err != nil {
		return nil, fmt.Errorf("receipt codec: %w", err)
	}
	receipts, err := receipt.NewGenerator(cfg.Office.InstituteName, cfg.PDF.FontPath, codec)
	if err != nil {
		return nil, err
	}

	trail := audit.New(d.DB)
	alloc := sequence.NewAllocator(&seqdb.DB{Bun: d.DB}, loc, log)
	feed := sse.NewPaymentFeed()
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	authService := auth.NewService(&authdb.DB{Bun: d.DB}, tokens, deny, log)
	enquiryService := enquiry.NewService(&enquirydb.DB{Bun: d.DB}, alloc, trail, d.Publisher, loc, log)
	photos := admission.NewPhotoStore(cfg.Media.Dir, cfg.Media.MaxPhotoBytes, cfg.Media.PhotoMaxWidth, cfg.Media.PhotoMaxHeight)
	admissionService := admission.NewService(&admissiondb.DB{Bun: d.DB}, alloc, trail, d.Publisher, photos, loc, cfg.Office.DefaultTotalFee, log)
	ledgerService := ledger.NewService(&ledgerdb.DB{Bun: d.DB}, alloc, locker, trail, d.Publisher, feed, log)
	billingService := billing.NewService(&billingdb.DB{Bun: d.DB}, alloc, trail, d.Publisher, loc, log)
	dashboardService := dashboard.NewService(dashboard.NewDB(d.DB), loc)

	handler := NewRouter(Handlers{
		Auth:      auth_api.NewHandler(authService, log),
		Enquiry:   enquiry_api.NewHandler(enquiryService, log),
		Admission: admission_api.NewHandler(admissionService, log),
		Ledger:    ledger_api.NewHandler(ledgerService, receipts, sse.NewHandler(feed, log), loc, log),
		Billing:   billing_api.NewHandler(billingService, receipts, log),
		Receipt:   receipt_api.NewHandler(receipt.NewVerifier(codec, d.DB), log),
		Dashboard: dashboard_api.NewHandler(dashboardService, log),
	}, Options{Tokens: tokens, DenyList: deny, Logger: log})

	return &App{Handler: handler, Feed: feed}, nil
}
