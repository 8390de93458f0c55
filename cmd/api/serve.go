package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Connect to PostgreSQL, Redis and optionally Kafka, apply pending migrations and serve the REST API.`,
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger))

	var forwarder *worker.EventForwarder
	if cfg.Kafka.Enabled {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.TicketEventsTopic)
		forwarder = worker.StartEventForwarder(dispatcher, events.NewKafkaSink(writer, logger), 0, logger)
		logger.Info("forwarding ticket events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.TicketEventsTopic))
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewReplyRepository(pool)
	lookupRepo := repository.NewCachedLookupRepository(
		repository.NewLookupRepository(pool),
		redis.Handle(),
		cfg.Redis.LookupTTL(),
		logger,
	)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ReplyRepo:    replyRepo,
		EventLogRepo: repository.NewEventLogRepository(pool),
		Dispatcher:   dispatcher,
		Pagination:   cfg.Pagination,
		Tickets:      cfg.Tickets,
	})
	replyService := service.NewReplyService(service.ReplyDependencies{
		TicketRepo: ticketRepo,
		ReplyRepo:  replyRepo,
		Dispatcher: dispatcher,
	})

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets: handlers.NewTicketsHandler(ticketService, replyService),
		Lookups: handlers.NewLookupsHandler(service.NewLookupService(lookupRepo)),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return fmt.Errorf("listen: %w", err)
		}
	case sig := <-waitForShutdown():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	if forwarder != nil {
		if err := forwarder.Stop(); err != nil {
			logger.Warn("kafka writer close", zap.Error(err))
		}
	}
	return nil
}

func waitForShutdown() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
