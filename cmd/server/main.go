package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/ekharid/internal/config"
	"github.com/iliyamo/ekharid/internal/database"
	"github.com/iliyamo/ekharid/internal/handler"
	"github.com/iliyamo/ekharid/internal/middleware"
	"github.com/iliyamo/ekharid/internal/queue"
	"github.com/iliyamo/ekharid/internal/repository"
	"github.com/iliyamo/ekharid/internal/router"
	"github.com/iliyamo/ekharid/internal/service"
	"github.com/iliyamo/ekharid/internal/storage"
	"github.com/iliyamo/ekharid/internal/validator"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store (%s): %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	uploader, err := storage.NewLocalUploader(cfg.UploadDir, cfg.ImageBaseURL)
	if err != nil {
		log.Fatal(err)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL)
		if cfg.OrderConsumerEnabled {
			consumer := queue.NewConsumer(cfg.RabbitURL, cfg.OrderLogDir)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("order-consumer: stopped: %v", err)
				}
			}()
		}
	} else {
		log.Printf("rabbitmq: RABBITMQ_URL not set, order events disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	if cfg.Env == "prod" {
		e.Logger.SetLevel(glog.WARN)
	} else {
		e.Logger.SetLevel(glog.DEBUG)
	}

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("25M"))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("http: %s %s %d %s err=%v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Printf("http: %s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.Register(e, router.Deps{
		Auth:     handler.NewAuthHandler(service.NewAuthService(store, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)),
		Products: handler.NewProductHandler(service.NewCatalogService(store, store, uploader)),
		Cart: handler.NewCartHandler(
			service.NewCartService(store),
			service.NewOrderService(store, events),
		),
		JWTSecret: cfg.JWTSecret,
		UploadDir: cfg.UploadDir,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore connects the backend named by STORE_DRIVER and prepares its
// schema or indexes.  The returned func releases the connection.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.OpenMySQL(database.MySQLConfig{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			return nil, nil, err
		}
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.MigrateMySQL(mctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repository.NewMySQLStore(db), closer(db), nil

	case config.DriverMemory:
		log.Printf("store: using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil

	default:
		client, db, err := database.OpenMongo(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		ictx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.EnsureMongoIndexes(ictx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repository.NewMongoStore(db), func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil
	}
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
