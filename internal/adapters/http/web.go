package web

import (
	"net/http"
	"time"

	"shepherd/internal/adapters/http/middleware"
	"shepherd/internal/adapters/http/perf"
	"shepherd/internal/adapters/metrics"
	accountStore "shepherd/internal/adapters/storage/account"
	attendanceStore "shepherd/internal/adapters/storage/attendance"
	blogStore "shepherd/internal/adapters/storage/blog"
	eventStore "shepherd/internal/adapters/storage/event"
	financeStore "shepherd/internal/adapters/storage/finance"
	galleryStore "shepherd/internal/adapters/storage/gallery"
	memberStore "shepherd/internal/adapters/storage/member"
	outboxStore "shepherd/internal/adapters/storage/outbox"
	sermonStore "shepherd/internal/adapters/storage/sermon"
	serviceStore "shepherd/internal/adapters/storage/service"
	visitorStore "shepherd/internal/adapters/storage/visitor"
	"shepherd/internal/adapters/token"
	"shepherd/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	Accounts   accountStore.Store
	Members    memberStore.Store
	Visitors   visitorStore.Store
	Services   serviceStore.Store
	Attendance attendanceStore.Store
	Finance    financeStore.Store
	Sermons    sermonStore.Store
	Posts      blogStore.Store
	Events     eventStore.Store
	Gallery    galleryStore.Store
	Outbox     outboxStore.Store
}

// Options configures NewMux. Collector, Metrics, Files and Outbox may be nil.
type Options struct {
	Stores         *Stores
	Tokens         *token.Codec
	Files          orchestrators.FileStore
	UploadDir      string // served under /uploads/ when set
	Metrics        *metrics.Metrics
	Collector      *perf.Collector
	Outbox         *orchestrators.OutboxProcessor
	CSRFKey        []byte
	TrustedOrigins []string
	SecureCookies  bool
	Location       *time.Location
	TokenTTL       time.Duration
	Clock          orchestrators.Clock
	Done           <-chan struct{} // closing it stops background pruning
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

var (
	appMetrics      *metrics.Metrics
	tokens          *token.Codec
	fileStore       orchestrators.FileStore
	outboxProcessor *orchestrators.OutboxProcessor
	uploadDir       string
	location        = time.UTC
	tokenTTL        = orchestrators.DefaultTokenTTL
	clock           orchestrators.Clock
)

// NewMux wires HTTP handlers for the app.
func NewMux(opts Options) http.Handler {
	stores = opts.Stores
	perfCollector = opts.Collector
	appMetrics = opts.Metrics
	tokens = opts.Tokens
	outboxProcessor = opts.Outbox
	uploadDir = opts.UploadDir
	clock = opts.Clock
	fileStore = opts.Files
	if opts.Location != nil {
		location = opts.Location
	}
	if opts.TokenTTL > 0 {
		tokenTTL = opts.TokenTTL
	}
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.SecureCookies

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	if opts.Done != nil {
		limiter.StartPruning(opts.Done)
	}

	// Outermost first: SecurityHeaders -> CSRF -> Auth -> RateLimit -> Timing -> Mux
	return middleware.Chain(mux,
		middleware.Timing(opts.Collector, opts.Metrics),
		middleware.RateLimit(limiter),
		middleware.Auth(sessions),
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.SecurityHeaders,
	)
}

// now reads the injected clock in the configured calendar.
func now() time.Time {
	t := time.Now()
	if clock != nil {
		t = clock()
	}
	return t.In(location)
}
