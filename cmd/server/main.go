package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"vehirent/internal/api"
	"vehirent/internal/auth"
	"vehirent/internal/config"
	"vehirent/internal/db"
	"vehirent/internal/repository"
	"vehirent/internal/service"
)

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := newLogger(cfg.Log)

	conn, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	conn.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := conn.PingContext(bootCtx); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := db.Migrate(bootCtx, conn); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	users := repository.NewUserRepository(conn)
	vehicles := repository.NewVehicleRepository(conn)
	bookings := repository.NewBookingRepository(conn)
	payments := repository.NewPaymentRepository(conn)
	reviews := repository.NewReviewRepository(conn)
	jobs := repository.NewJobRepository(conn)

	var email service.EmailSender
	if cfg.IsEmailConfigured() {
		email = service.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName, log)
	} else {
		log.Warn("SendGrid not configured, email notifications disabled")
	}
	var sms service.SMSSender
	if cfg.IsSMSConfigured() {
		sms = service.NewTwilioSender(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, log)
	} else {
		log.Warn("Twilio not configured, SMS notifications disabled")
	}
	notifier, err := service.NewNotifier(email, sms, cfg.Payment.Currency, log)
	if err != nil {
		log.Fatalf("Failed to build notifier: %v", err)
	}
	dispatcher := service.NewDispatcher(cfg.Email.Timeout, log)

	var gateway service.Gateway
	if cfg.Payment.StripeSecretKey != "" {
		gateway = service.NewStripeGateway(cfg.Payment.StripeSecretKey, cfg.Payment.KeySecret, cfg.Payment.Timeout, log)
	} else {
		log.Warn("Stripe not configured, using local payment orders")
		gateway = service.NewLocalGateway(cfg.Payment.KeySecret)
	}

	var invoiceStore service.InvoiceStore
	serveInvoices := false
	if cfg.IsS3Configured() {
		s3Store, err := service.NewS3InvoiceStore(cfg.Storage.AWSRegion, cfg.Storage.AWSAccessKey, cfg.Storage.AWSSecretKey, cfg.Storage.Bucket)
		if err != nil {
			log.Fatalf("Failed to init S3 invoice store: %v", err)
		}
		invoiceStore = s3Store
	} else {
		invoiceStore = service.NewLocalInvoiceStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		serveInvoices = true
	}
	invoices, err := service.NewInvoiceService(invoiceStore, users, vehicles, notifier, log)
	if err != nil {
		log.Fatalf("Failed to build invoice service: %v", err)
	}

	var ledger service.ReminderLedger = service.NewMemoryLedger()
	var redisLedger *service.RedisLedger
	if cfg.Redis.URL != "" {
		redisLedger, err = service.NewRedisLedger(bootCtx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		ledger = redisLedger
	} else {
		log.Warn("REDIS_URL not set, reminder dedup is per process")
	}
	cancelBoot()

	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	bookingService := service.NewBookingService(bookings, vehicles, users, notifier, dispatcher, log)
	paymentService := service.NewPaymentService(payments, gateway, bookingService, invoices, dispatcher,
		cfg.Payment.Currency, cfg.Payment.Timeout, log)

	router := api.NewRouter(api.Services{
		Auth:     service.NewAuthService(users, issuer, cfg.Admin.Emails, log),
		Bookings: bookingService,
		Payments: paymentService,
		Vehicles: service.NewVehicleService(vehicles, log),
		Reviews:  service.NewReviewService(reviews, vehicles),
	}, issuer, conn, log)
	if serveInvoices {
		router.PathPrefix("/invoices/").Handler(
			http.StripPrefix("/invoices/", http.FileServer(http.Dir(cfg.Storage.LocalDir)))).Methods("GET")
	}

	reminders := service.NewReminderJob(jobs, ledger, notifier, log)
	scheduler := service.NewScheduler(log)
	err = scheduler.Register("reminders", cfg.Scheduler.ReminderSpec, 10*time.Minute, func(ctx context.Context) error {
		sent, err := reminders.Run(ctx)
		log.WithField("sent", sent).Info("reminder run finished")
		return err
	})
	if err != nil {
		log.Fatalf("Failed to schedule reminders: %v", err)
	}
	scheduler.Start()

	handler := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(router)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(log), handlers.PrintRecoveryStack(true))(handler)
	accessLog := log.WriterLevel(logrus.InfoLevel)
	defer accessLog.Close()
	handler = handlers.CombinedLoggingHandler(accessLog, handler)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infof("Server running on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http server shutdown")
	}
	scheduler.Stop(ctx)
	if err := dispatcher.Wait(ctx); err != nil {
		log.WithError(err).Warn("follow-up tasks still running at shutdown")
	}
	if redisLedger != nil {
		if err := redisLedger.Close(); err != nil {
			log.WithError(err).Warn("closing redis")
		}
	}
	if err := conn.Close(); err != nil {
		log.WithError(err).Warn("closing database")
	}
}
