package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/app"
	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/internal/email"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

const healthAddr = ":8081"

// The notice worker relays appointment events from Redis onto a local bus
// and mails a summary of each created or updated appointment to the front
// desk.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Store.Origin == "scheduler" {
		cfg.Store.Origin = "notice-worker"
	}

	logger := app.NewLogger(cfg.Log).With("notice_worker")
	if !cfg.Redis.Enabled {
		logger.Fatal(errors.New("redis disabled"), "the notice worker needs redis.enabled")
	}
	if cfg.Mail.FrontDesk == "" {
		logger.Fatal(errors.New("mail.front_desk is empty"), "no notice recipient configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("scheduler", "worker")
	stack, err := app.Build(ctx, cfg, logger, m)
	if err != nil {
		logger.Fatal(err, "failed to build service stack")
	}
	defer stack.Close()

	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	notifier := email.NewNotifier(stack.Store, stack.Resolver, sender, cfg.Mail.FrontDesk, logger, m)
	sub := notifier.Subscribe(stack.Bus)
	defer sub.Unsubscribe()

	relay := event.NewRelay(stack.Bus, stack.Broker, cfg.Redis.Channel, logger)
	if err := relay.Start(ctx); err != nil {
		logger.Fatal(err, "failed to subscribe to appointment events")
	}

	srv := setupHealthCheck(stack, logger)

	logger.Info("worker started", "channel", cfg.Redis.Channel, "recipient", cfg.Mail.FrontDesk)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "health server forced to shutdown")
	}
}

func setupHealthCheck(stack *app.Stack, logger *logger.Logger) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(stack.Checks()).RegisterRoutes(&engine.RouterGroup)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: healthAddr, Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "health check server failed")
		}
	}()
	return srv
}
