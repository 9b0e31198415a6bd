package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/wheels-shop/config"
	"github.com/niksmo/wheels-shop/internal/adapter"
	"github.com/niksmo/wheels-shop/internal/adapter/catalog"
	"github.com/niksmo/wheels-shop/internal/adapter/eventbus"
	"github.com/niksmo/wheels-shop/internal/adapter/httphandler"
	"github.com/niksmo/wheels-shop/internal/adapter/kafka"
	"github.com/niksmo/wheels-shop/internal/adapter/storage"
	"github.com/niksmo/wheels-shop/internal/core/port"
	"github.com/niksmo/wheels-shop/internal/core/service"
	"github.com/niksmo/wheels-shop/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
	"gopkg.in/natefinch/lumberjack.v2"
)

type cartStorage interface {
	port.CartStorage
	Close()
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	logFile    io.Closer
	catalog    *catalog.Static
	storage    cartStorage
	bus        eventbus.Bus
	forwarder  *eventbus.Forwarder
	producer   *kafka.CartEventsProducer
	service    service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initCatalog()
	app.initStorage()
	app.initEvents()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	var w io.Writer = os.Stderr
	if app.cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   app.cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		app.logFile = lj
		w = lj
	}

	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(logger)
}

func (app *App) initCatalog() {
	const op = "App.initCatalog"

	c, err := catalog.Load(app.cfg.CatalogFile)
	if err != nil {
		app.fallDown(op, err)
	}
	app.catalog = c
}

func (app *App) initStorage() {
	const op = "App.initStorage"
	cfg := app.cfg.Storage

	var (
		s   cartStorage
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		var db storage.SQLDB
		db, err = storage.NewSQLDB(app.ctx, cfg.SQLDB)
		if err == nil {
			s = sqlCartStorage{storage.NewCartsRepository(db), db}
		}
	case config.DriverRedis:
		s, err = storage.NewRedisStorage(app.ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		s, err = storage.NewBoltStorage(cfg.BoltPath)
	}
	if err != nil {
		app.fallDown(op, err)
	}

	slog.Info("cart storage is ready", "op", op, "driver", cfg.Driver)
	app.storage = s
}

// sqlCartStorage closes the database the repository works on.
type sqlCartStorage struct {
	storage.CartsRepository
	db storage.SQLDB
}

func (s sqlCartStorage) Close() {
	s.db.Close()
}

func (app *App) initEvents() {
	const op = "App.initEvents"

	app.bus = eventbus.New()
	if err := app.bus.SubscribeCartEvents(eventbus.LogCartEvents()); err != nil {
		app.fallDown(op, err)
	}

	if !app.cfg.Broker.Enabled() {
		return
	}

	producer := app.initCartEventsProducer()
	app.producer = &producer

	app.forwarder = eventbus.NewForwarder(
		producer, app.cfg.Broker.ForwardBuffer, app.cfg.Broker.ProduceTimeout,
	)
	if err := app.bus.SubscribeCartEvents(app.forwarder.Handle); err != nil {
		app.fallDown(op, err)
	}
}

func (app *App) initCartEventsProducer() kafka.CartEventsProducer {
	const op = "App.initCartEventsProducer"
	cfg := app.cfg.Broker
	ctx := app.ctx

	srOpts := []sr.ClientOpt{sr.URLs(cfg.SchemaRegistryURLs...)}
	tlsCfg, err := app.brokerTLS()
	if err != nil {
		app.fallDown(op, err)
	}
	if tlsCfg != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(tlsCfg))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	cartEventsSS := cfg.Topics.CartEvents + "-value"
	cartEventSerde, err := schema.NewSerdeCartEventV1(
		ctx,
		schema.SubjectOpt(cartEventsSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewCartEventsProducer(
		kafka.ProducerClientOpt(
			ctx, cfg.SeedBrokers, cfg.Topics.CartEvents, tlsCfg, cfg.ProduceTimeout,
		),
		kafka.ProducerEncoderOpt(cartEventSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return producer
}

func (app *App) brokerTLS() (*tls.Config, error) {
	t := app.cfg.Broker.TLS
	if !t.Enabled() {
		return nil, nil
	}
	return adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
}

func (app *App) initCoreService() {
	app.service = service.New(
		app.catalog,
		app.catalog,
		app.catalog,
		app.storage,
		app.bus,
		service.NotificationDurationOpt(app.cfg.Notifications.DefaultDuration),
		service.MaxOpenCartsOpt(app.cfg.Carts.MaxOpen),
	)
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	assets := httphandler.NewAssets(app.cfg.BasePath)

	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.service, assets)
	httphandler.RegisterReviews(mux, app.service, assets)
	httphandler.RegisterCart(mux, app.service, assets)
	httphandler.RegisterNotifications(mux, app.service)

	handler := httphandler.NewRouter(app.cfg.BasePath, app.cfg.StaticDir, mux)
	app.httpServer = httphandler.NewHTTPServer(addr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	stats := app.service.Stats()
	slog.Info("service state on close",
		"openCarts", stats.OpenCarts,
		"notificationQueues", stats.NotificationQueues,
	)
	app.service.Close()
	app.bus.Close()
	if app.forwarder != nil {
		app.forwarder.Close()
	}
	if app.producer != nil {
		app.producer.Close()
	}
	app.storage.Close()

	slog.Info("application is closed")

	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
