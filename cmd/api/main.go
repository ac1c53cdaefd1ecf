package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/app"
	"github.com/jwalitptl/clinic-scheduler/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/appointment"
	calendarHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/calendar"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	promHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/router"
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/service/calendar"
	"github.com/jwalitptl/clinic-scheduler/pkg/auth"
	"github.com/jwalitptl/clinic-scheduler/pkg/event"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := app.NewLogger(cfg.Log)
	if err := validator.RegisterGin(); err != nil {
		logger.Fatal(err, "failed to register validators")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("scheduler", "")
	stack, err := app.Build(ctx, cfg, logger, m)
	if err != nil {
		logger.Fatal(err, "failed to build service stack")
	}
	defer stack.Close()

	calendarSvc := stack.Calendar()
	view := calendar.NewView(calendarSvc, logger, m, cfg.Schedule.RefreshInterval)
	view.Attach(stack.Bus)
	go view.Run(ctx)
	defer view.Close()

	appointmentSvc := appointment.NewService(
		stack.Store,
		stack.Resolver,
		stack.Bus,
		stack.Clock,
		appointment.Config{
			Hours: appointment.BusinessHours{
				Open:  cfg.Schedule.BusinessOpenHour,
				Close: cfg.Schedule.BusinessCloseHour,
			},
			FetchTimeout: cfg.Schedule.FetchTimeout,
		},
		logger,
		m,
	)

	if stack.Broker != nil {
		forwarder := event.NewForwarder(stack.Bus, stack.Broker, cfg.Redis.Channel, logger, m)
		forwarder.Start()
		defer forwarder.Stop()
		// Changes written by other instances arrive here and refresh the view.
		relay := event.NewRelay(stack.Bus, stack.Broker, cfg.Redis.Channel, logger)
		if err := relay.Start(ctx); err != nil {
			logger.Error(err, "failed to subscribe to remote appointment events")
		}
	}

	var metricsHandler *promHandler.Handler
	if cfg.Monitoring.PrometheusEnabled {
		metricsHandler = promHandler.New("scheduler", prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	}

	routerConfig := router.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSConfig:     middleware.DefaultCORSConfig(),
		MetricsPath:    cfg.Monitoring.MetricsPath,
		ReleaseMode:    cfg.Env == "production",
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = cfg.RateLimit.RequestsPerSecond
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTService(auth.Config{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
		})),
		health.NewHandler(stack.Checks()),
		metricsHandler,
		routerConfig,
		calendarHandler.NewHandler(calendarSvc, view),
		appointmentHandler.NewHandler(appointmentSvc, stack.Catalog, stack.Resolver),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "server forced to shutdown")
	}

	logger.Info("server exited properly")
}
