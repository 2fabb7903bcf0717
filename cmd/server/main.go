package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"shepherd/internal/adapters/email"
	"shepherd/internal/adapters/files"
	web "shepherd/internal/adapters/http"
	"shepherd/internal/adapters/http/perf"
	"shepherd/internal/adapters/metrics"
	"shepherd/internal/adapters/storage"
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
	"shepherd/internal/config"
	domainOutbox "shepherd/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Query timings feed both the admin perf view and Prometheus.
	appMetrics := metrics.New()
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector).WithObserver(appMetrics)

	stores := &web.Stores{
		Accounts:   accountStore.NewSQLiteStore(timedDB),
		Members:    memberStore.NewSQLiteStore(timedDB),
		Visitors:   visitorStore.NewSQLiteStore(timedDB),
		Services:   serviceStore.NewSQLiteStore(timedDB),
		Attendance: attendanceStore.NewSQLiteStore(timedDB),
		Finance:    financeStore.NewSQLiteStore(timedDB),
		Sermons:    sermonStore.NewSQLiteStore(timedDB),
		Posts:      blogStore.NewSQLiteStore(timedDB),
		Events:     eventStore.NewSQLiteStore(timedDB),
		Gallery:    galleryStore.NewSQLiteStore(timedDB),
		Outbox:     outboxStore.NewSQLiteStore(timedDB),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seedDeps := orchestrators.CreateAccountDeps{AccountStore: stores.Accounts}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	uploads, err := files.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	var sender email.Sender
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		slog.Info("email_configured", "provider", "resend")
	} else {
		sender = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_configured", "provider", "noop", "note", "SHEPHERD_RESEND_KEY is not set; welcome emails will not be delivered")
		} else {
			slog.Info("email_configured", "provider", "noop")
		}
	}

	processor := orchestrators.NewOutboxProcessor(stores.Outbox, map[string]orchestrators.ActionExecutor{
		domainOutbox.ActionTypeVisitorWelcome: &orchestrators.VisitorWelcomeExecutor{Sender: sender, ChurchName: cfg.ChurchName},
	}, nil, appMetrics)
	orchestrators.StartBackgroundWorker(processor, cfg.OutboxInterval, ctx.Done())

	mux := web.NewMux(web.Options{
		Stores:        stores,
		Tokens:        token.NewCodec(cfg.TokenSecret),
		Files:         uploads,
		UploadDir:     uploads.Root(),
		Metrics:       appMetrics,
		Collector:     collector,
		Outbox:        processor,
		CSRFKey:       []byte(cfg.CSRFKey),
		SecureCookies: cfg.IsProduction(),
		Location:      cfg.Location,
		TokenTTL:      cfg.TokenTTL,
		Done:          ctx.Done(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "error", err)
		}
	}()

	slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
	slog.Info("server_stopped")
}
