// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/unclebandit/agency-notifier/internal/config"
	"github.com/unclebandit/agency-notifier/internal/controller"
	"github.com/unclebandit/agency-notifier/internal/db"
	"github.com/unclebandit/agency-notifier/internal/dedup"
	"github.com/unclebandit/agency-notifier/internal/handler"
	"github.com/unclebandit/agency-notifier/internal/logging"
	"github.com/unclebandit/agency-notifier/internal/queue"
	"github.com/unclebandit/agency-notifier/internal/repository"
	"github.com/unclebandit/agency-notifier/internal/scheduler"
	"github.com/unclebandit/agency-notifier/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", false)
		bootLog.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogJSON)
	if !dotenv {
		log.Warn().Msg("⚠️ No .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DSN(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Database unavailable")
	}
	defer conn.Close()

	customerRepo := &repository.CustomerRepository{DB: conn}
	orderRepo := &repository.OrderRepository{DB: conn}
	paymentRepo := &repository.PaymentRepository{DB: conn}
	outboxRepo := &repository.OutboxRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	settingsRepo := &repository.SettingsRepository{DB: conn}
	evaluationRepo := &repository.EvaluationRepository{DB: conn}

	writer := &service.OutboxWriter{Repo: outboxRepo, Log: logging.Component(log, "outbox")}
	if cfg.RedisURL != "" {
		guard, err := dedup.NewRedisGuardFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Redis dedupe guard unavailable, relying on outbox lookups")
		} else {
			defer guard.Close()
			writer.Guard = guard
			log.Info().Msg("✅ Redis dedupe guard enabled")
		}
	}

	target, closeTarget := buildTrigger(cfg, log)
	defer closeTarget()
	trigger := queue.NewBestEffortTrigger(target, cfg.TriggerTimeout, logging.Component(log, "trigger"))

	dispatcher := &service.Dispatcher{
		Settings: settingsRepo,
		Composer: &service.Composer{
			Templates: &service.TemplateService{Repo: templateRepo, Log: logging.Component(log, "templates")},
			Location:  cfg.Location(),
			Currency:  cfg.Currency,
		},
		Writer:       writer,
		Trigger:      trigger,
		SenderNumber: cfg.SenderNumber,
		DedupWindow:  cfg.DedupWindow,
		Log:          logging.Component(log, "dispatcher"),
	}

	deliveryDelay := &service.DeliveryDelayDetector{Dispatcher: dispatcher, Orders: orderRepo}
	paymentDelay := &service.PaymentDelayDetector{Dispatcher: dispatcher, Customers: customerRepo, Orders: orderRepo}

	notificationController := &controller.NotificationController{
		DeliveryDelay: deliveryDelay,
		PaymentDelay:  paymentDelay,
		NewPayment: &service.NewPaymentNotifier{
			Dispatcher: dispatcher,
			Payments:   paymentRepo,
			Orders:     orderRepo,
			Customers:  customerRepo,
		},
		OrderStatus: &service.OrderStatusNotifier{
			Dispatcher:      dispatcher,
			Orders:          orderRepo,
			Customers:       customerRepo,
			Evaluations:     evaluationRepo,
			FeedbackBaseURL: cfg.FeedbackBaseURL,
		},
		Log: logging.Component(log, "http"),
	}
	outboxHandler := &handler.OutboxHandler{Repo: outboxRepo, Log: logging.Component(log, "http")}

	sched := scheduler.New(cfg.Location(), 5*time.Minute, logging.Component(log, "scheduler"))
	if err := sched.Add("delivery-delay", cfg.DeliveryDelayCron, scan(deliveryDelay)); err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid schedule")
	}
	if err := sched.Add("payment-delay", cfg.PaymentDelayCron, scan(paymentDelay)); err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid schedule")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger(logging.Component(log, "http")))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Route("/notifications", func(r chi.Router) {
		r.Route("/outbox", outboxHandler.Routes)
		notificationController.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched.Start()
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("trigger_mode", cfg.TriggerMode).Msg("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("❌ HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown incomplete")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduled scans still running at shutdown")
	}
	if err := trigger.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("delivery triggers still in flight at shutdown")
	}
	log.Info().Msg("👋 Bye")
}

type scanner interface {
	Run(ctx context.Context, test bool) (*service.Result, error)
}

func scan(s scanner) scheduler.Job {
	return func(ctx context.Context) error {
		_, err := s.Run(ctx, false)
		return err
	}
}

// buildTrigger picks the delivery worker transport. The returned func releases it.
func buildTrigger(cfg *config.Config, log zerolog.Logger) (queue.Trigger, func()) {
	switch cfg.TriggerMode {
	case config.TriggerAMQP:
		t := queue.NewAMQPTrigger(cfg.RabbitURL, cfg.DeliveryQueue, cfg.TriggerTimeout)
		log.Info().Str("queue", cfg.DeliveryQueue).Msg("📨 Delivery triggers go to RabbitMQ")
		return t, func() { _ = t.Close() }
	case config.TriggerHTTP:
		log.Info().Str("url", cfg.WorkerURL).Msg("📨 Delivery triggers go to HTTP worker")
		return &queue.HTTPTrigger{URL: cfg.WorkerURL, Key: cfg.WorkerKey, Client: &http.Client{Timeout: cfg.TriggerTimeout}}, func() {}
	case config.TriggerMemory:
		q := queue.NewInMemoryQueue(logging.Component(log, "queue"))
		qlog := logging.Component(log, "local-worker")
		_ = q.Subscribe(cfg.DeliveryQueue, func(payload any) error {
			req, _ := payload.(queue.TriggerRequest)
			qlog.Info().Str("trigger", req.Trigger).Str("order_id", req.OrderID).Int64("message_id", req.MessageID).Msg("📬 delivery trigger received")
			return nil
		})
		log.Info().Msg("📨 Delivery triggers stay in process")
		return &queue.MemoryTrigger{Queue: q, Topic: cfg.DeliveryQueue}, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = q.Drain(ctx)
		}
	default:
		log.Info().Msg("📨 Delivery triggers disabled")
		return queue.NopTrigger{}, func() {}
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
