package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"study-buddy-api/config"
	"study-buddy-api/internal/application/ports"
	"study-buddy-api/internal/application/services"
	"study-buddy-api/internal/infrastructure/db/postgres"
	"study-buddy-api/internal/infrastructure/db/postgres/membership"
	"study-buddy-api/internal/infrastructure/db/postgres/resource"
	"study-buddy-api/internal/infrastructure/jwt"
	"study-buddy-api/internal/infrastructure/metrics"
	"study-buddy-api/internal/infrastructure/mq"
	"study-buddy-api/internal/infrastructure/s3"
	"study-buddy-api/internal/interface/api/rest"
	"study-buddy-api/internal/interface/api/rest/middleware"
	"study-buddy-api/pkg/rmqconsumer"
)

const (
	shutdownTimeout = 5 * time.Second
	healthTimeout   = 2 * time.Second
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	blobs      ports.BlobStorage
	httpSrv    *http.Server
	router     *gin.Engine
	mCounter   *prometheus.CounterVec
	mq         ports.RabbitMQ
	mqConsumer ports.RMQConsumer
}

func NewApp(ctx context.Context) (*App, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	if err = godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file, using process environment", zap.Error(err))
	}
	cfg := config.Load()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &App{
		logger:   logger,
		cfg:      cfg,
		mCounter: metrics.NewCounter(),
	}
	a.router = a.newRouter()
	a.httpSrv = &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err = a.connectStores(ctx); err != nil {
		return nil, err
	}
	if err = a.connectBroker(ctx); err != nil {
		a.db.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) newRouter() *gin.Engine {
	switch a.cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogGin(a.logger, a.mCounter))

	return r
}

func (a *App) connectStores(ctx context.Context) error {
	dsn, err := a.cfg.DBDSN()
	if err != nil {
		return fmt.Errorf("db config: %w", err)
	}
	if a.db, err = postgres.New(ctx, a.logger, dsn); err != nil {
		return err
	}

	blobs, err := s3.New(ctx, a.logger, a.cfg.S3)
	if err != nil {
		a.db.Close()
		return fmt.Errorf("s3: %w", err)
	}
	a.blobs = blobs

	return nil
}

// connectBroker opens the publisher, then the operator consumer on its own connection.
func (a *App) connectBroker(ctx context.Context) error {
	dsn, err := a.cfg.AMQPDSN()
	if err != nil {
		return fmt.Errorf("rabbitmq config: %w", err)
	}

	publisher := mq.New(a.cfg.MQ, a.logger)
	if err = publisher.Connect(ctx, dsn); err != nil {
		return fmt.Errorf("rabbitmq connect: %w", err)
	}
	if err = publisher.Init(); err != nil {
		_ = publisher.GetConn().Close()
		return fmt.Errorf("rabbitmq init: %w", err)
	}
	a.mq = publisher

	consumer := rmqconsumer.New(a.cfg.MQ, a.logger, nil, mq.RoutingKeys)
	if err = consumer.Connect(dsn); err != nil {
		_ = publisher.GetConn().Close()
		return fmt.Errorf("rabbitmq consumer connect: %w", err)
	}
	if err = consumer.Init(); err != nil {
		_ = publisher.GetConn().Close()
		return fmt.Errorf("rabbitmq consumer init: %w", err)
	}
	a.mqConsumer = consumer

	return nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		_ = a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run serves HTTP and runs both MQ workers until a signal arrives or one of them fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.cfg.App.Host+":"+a.cfg.App.Port))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server %s: %w", a.cfg.App.Name, err)
		}

		return nil
	})
	g.Go(func() error {
		a.mq.PublisherWorker(ctx)
		return nil
	})
	g.Go(func() error {
		a.mqConsumer.DeliveryWorker(ctx)
		return nil
	})

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", zap.Error(err))
		return err
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// repos
	resourceRepo := resource.NewRepository(a.db)
	membershipRepo := membership.NewRepository(a.db)

	// services
	tokens := jwt.New(a.cfg.App.JWTSecret)
	policy := services.NewAccessPolicy(services.NewMembershipAuthority(membershipRepo))
	lifecycle := services.NewLifecycle(a.blobs, resourceRepo, a.mq, a.logger, a.mCounter)
	resourceService := services.NewResourceService(resourceRepo, a.blobs, policy, lifecycle, a.mq, a.logger, a.mCounter)
	membershipService := services.NewMembershipService(membershipRepo, policy, a.logger, a.mCounter)

	// controllers
	rest.NewResourceController(a.router, resourceService, a.logger, tokens, a.cfg.App.MaxUploadBytes)
	rest.NewMembershipController(a.router, membershipService, a.logger, tokens)

	// ops
	a.router.GET(rest.RouteHealth, a.healthHandler)
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

// healthHandler reports 503 while the database is unreachable.
func (a *App) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) Logger() *zap.Logger { return a.logger }
