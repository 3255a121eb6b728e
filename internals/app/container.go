package app

import (
	"context"
	"errors"
	"fmt"

	"pagewatch/config"
	middle "pagewatch/internals/middleware"
	"pagewatch/internals/modules/alert"
	"pagewatch/internals/modules/artifact"
	"pagewatch/internals/modules/auth"
	"pagewatch/internals/modules/executor"
	"pagewatch/internals/modules/fetcher"
	"pagewatch/internals/modules/monitor"
	"pagewatch/internals/modules/result"
	"pagewatch/internals/modules/scheduler"
	"pagewatch/internals/security"
	"pagewatch/pkg/db"
	"pagewatch/pkg/rabbitmq"
	"pagewatch/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	Cfg    *config.Config
	Logger *zerolog.Logger

	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	AMQPConn    *amqp091.Connection
	Publisher   *rabbitmq.Publisher
	Consumer    *rabbitmq.Consumer

	Scheduler *scheduler.Scheduler
	ResultPro *result.Processor

	repo       monitor.Repository
	monitorSvc *monitor.Service
	browser    *fetcher.BrowserFetcher
	events     chan executor.CheckEvent

	monitorHandler  *monitor.Handler
	alertHandler    *alert.Handler
	artifactHandler *artifact.Handler
	authHandler     *auth.Handler
	authMW          *middle.AuthMiddleware
}

// NewContainer connects every backend and wires the modules. On error the
// already opened resources are released.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {
	c := &Container{Cfg: cfg, Logger: logger}
	if err := c.wire(ctx); err != nil {
		c.closeBackends()
		return nil, err
	}
	return c, nil
}

func (c *Container) wire(ctx context.Context) (err error) {
	cfg, logger := c.Cfg, c.Logger

	if err = c.openStore(ctx); err != nil {
		return err
	}

	var statusCache monitor.StatusCache
	var statusStore result.StatusStore
	if cfg.Redis.Enabled {
		if c.RedisClient, err = redisstore.New(&cfg.Redis); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		statusCache = c.RedisClient
		statusStore = c.RedisClient
		logger.Info().Msg("redis status cache enabled")
	}

	var publisher result.Publisher
	if cfg.RabbitMQ.Enabled {
		if err = c.openRabbit(); err != nil {
			return err
		}
		publisher = c.Publisher
	}

	artifacts, err := artifact.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}

	f, err := c.newFetcher(artifacts)
	if err != nil {
		return err
	}

	validate := validator.New()
	notifier := alert.NewNtfyNotifier(cfg.Notifier.BaseURL, cfg.Notifier.Timeout, logger)

	c.events = make(chan executor.CheckEvent, cfg.Scheduler.EventBuffer)
	exec := executor.NewExecutor(f, notifier, c.repo, artifacts, c.events, logger)
	c.Scheduler = scheduler.NewScheduler(c.repo, exec, cfg.Scheduler.TickInterval, logger)
	c.ResultPro = result.NewProcessor(c.events, statusStore, publisher, &cfg.Result, logger)

	c.monitorSvc = monitor.NewService(c.repo, statusCache, cfg.Scheduler.MinIntervalSec, logger)
	c.monitorHandler = monitor.NewHandler(c.monitorSvc, validate)
	c.alertHandler = alert.NewHandler(notifier, validate)
	c.artifactHandler = artifact.NewHandler(artifacts)

	if cfg.AuthEnabled() {
		tokens := security.NewTokenService(&cfg.Auth)
		c.authHandler = auth.NewHandler(auth.NewService(cfg.Auth.AdminPasswordHash, tokens, logger), validate)
		c.authMW = middle.NewAuthMiddleware(tokens)
	} else {
		logger.Warn().Msg("auth.secret is empty, API is unauthenticated")
	}

	return nil
}

func (c *Container) openStore(ctx context.Context) error {
	switch c.Cfg.Store.Driver {
	case "postgres":
		pool, err := db.ConnectToDB(ctx, &c.Cfg.DB, c.Logger)
		if err != nil {
			return err
		}
		c.DB = pool

		repo := monitor.NewPostgresRepository(pool, c.Logger)
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate monitors: %w", err)
		}
		c.repo = repo
	default:
		repo, err := monitor.NewSQLiteRepository(ctx, c.Cfg.Store.SQLitePath, c.Logger)
		if err != nil {
			return err
		}
		c.repo = repo
	}

	c.Logger.Info().Str("driver", c.Cfg.Store.Driver).Msg("monitor store ready")
	return nil
}

func (c *Container) openRabbit() error {
	rmq := &c.Cfg.RabbitMQ

	conn, err := rabbitmq.NewConnection(rmq, c.Logger)
	if err != nil {
		return err
	}
	c.AMQPConn = conn

	if err := rabbitmq.SetupTopology(conn, rmq); err != nil {
		return fmt.Errorf("rabbitmq topology: %w", err)
	}
	if c.Publisher, err = rabbitmq.NewPublisher(conn, rmq.ExchangeName, rmq.EventsKey); err != nil {
		return fmt.Errorf("rabbitmq publisher: %w", err)
	}
	if c.Consumer, err = rabbitmq.NewConsumer(conn, rmq.CommandQueue, rmq.ConsumerCount, c.Logger); err != nil {
		return fmt.Errorf("rabbitmq consumer: %w", err)
	}

	c.Logger.Info().Str("exchange", rmq.ExchangeName).Msg("rabbitmq connected")
	return nil
}

func (c *Container) newFetcher(artifacts *artifact.Store) (fetcher.Fetcher, error) {
	if c.Cfg.Fetcher.Driver == "http" {
		return fetcher.NewHTTPFetcher(&c.Cfg.Fetcher, c.Logger), nil
	}

	b := fetcher.NewBrowserFetcher(&c.Cfg.Fetcher, artifacts, c.Logger)
	if err := b.Start(); err != nil {
		return nil, err
	}
	c.browser = b
	return b, nil
}

// Shutdown stops the scheduler, drains side effects and closes every
// backend. ctx bounds the whole sequence.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if err := c.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	} else {
		// checks may still emit while Stop is timing out, only close once drained
		close(c.events)
		c.waitResults(ctx)
	}

	if c.Consumer != nil {
		if err := c.Consumer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop consumer: %w", err))
		}
	}

	c.closeBackends()
	return errors.Join(errs...)
}

func (c *Container) waitResults(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.ResultPro.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		c.Logger.Warn().Msg("result processor did not drain in time")
	}
}

func (c *Container) closeBackends() {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("failed to close publisher")
		}
	}
	if c.AMQPConn != nil {
		if err := c.AMQPConn.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("failed to close rabbitmq connection")
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if c.browser != nil {
		c.browser.Close()
	}
	if c.repo != nil {
		if err := c.repo.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("failed to close monitor store")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
