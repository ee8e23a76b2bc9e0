package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/niksmo/checkout/config"
	"github.com/niksmo/checkout/internal/adapter"
	"github.com/niksmo/checkout/internal/adapter/httphandler"
	"github.com/niksmo/checkout/internal/adapter/kafka"
	"github.com/niksmo/checkout/internal/adapter/memory"
	"github.com/niksmo/checkout/internal/adapter/metrics"
	"github.com/niksmo/checkout/internal/adapter/shipmentlog"
	"github.com/niksmo/checkout/internal/adapter/storage"
	"github.com/niksmo/checkout/internal/core/checkout"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/niksmo/checkout/internal/core/service"
	"github.com/niksmo/checkout/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/sr"
)

type broker struct {
	tlsConfig  *tls.Config
	producer   *kafka.ShipmentNoticeProducer
	ledgerProc port.ShipmentLedgerProcessor
	ledgerView *kafka.ShipmentLedgerView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	metrics    *metrics.Metrics
	catalog    port.Catalog
	pool       *storage.Pool
	notifiers  adapter.MultiNotifier
	broker     broker
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initCatalog()
	app.initBroker()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
	decimal.MarshalJSONWithoutQuotes = true
}

func (app *App) initCatalog() {
	const op = "App.initCatalog"

	switch app.cfg.Catalog.Source {
	case config.CatalogPostgres:
		pool, err := storage.NewPool(app.ctx, app.cfg.Catalog.SQLDB)
		if err != nil {
			app.fallDown(op, err)
		}
		app.pool = &pool
		app.catalog = storage.NewCatalogRepository(pool)
	default:
		c, err := memory.NewCatalog(memory.SampleProducts(time.Now()))
		if err != nil {
			app.fallDown(op, err)
		}
		app.catalog = c
	}
}

func (app *App) initBroker() {
	const op = "App.initBroker"

	app.notifiers = adapter.MultiNotifier{shipmentlog.New(slog.Default())}

	bcfg := app.cfg.Broker
	if !bcfg.Enabled() {
		slog.Info("broker is not configured, shipment ledger is disabled")
		return
	}

	if bcfg.TLS.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(
			bcfg.TLS.CA, bcfg.TLS.Cert, bcfg.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		app.broker.tlsConfig = tlsConfig
		kafka.UseTLS(tlsConfig)
	}

	noticeSerde := app.initShipmentNoticeSerde()
	topic := bcfg.Topics.ShipmentNotices

	producer, err := kafka.NewShipmentNoticeProducer(
		kafka.ProducerClientOpt(
			app.ctx, bcfg.SeedBrokers, topic, app.broker.tlsConfig,
		),
		kafka.ProducerEncoderOpt(noticeSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.producer = producer
	app.notifiers = append(app.notifiers, producer)

	group := bcfg.Consumers.ShipmentLedgerGroup
	ledgerProc, err := kafka.NewShipmentLedgerProc(
		bcfg.SeedBrokers, topic, group, noticeSerde,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.ledgerProc = ledgerProc

	ledgerView, err := kafka.NewShipmentLedgerView(bcfg.SeedBrokers, group)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.ledgerView = ledgerView
}

func (app *App) initShipmentNoticeSerde() schema.Serde {
	const op = "App.initShipmentNoticeSerde"

	srOpts := []sr.ClientOpt{sr.URLs(app.cfg.Broker.SchemaRegistryURLs...)}
	if app.broker.tlsConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.broker.tlsConfig))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	subject := app.cfg.Broker.Topics.ShipmentNotices + "-value"
	serde, err := schema.NewSerdeShipmentNoticeV1(
		app.ctx,
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return serde
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	customers, err := customersFromConfig(app.cfg.Customers)
	if err != nil {
		app.fallDown(op, err)
	}

	app.metrics = metrics.New()
	processor := checkout.New()

	opts := []service.Opt{
		service.ObserverOpt(app.metrics),
		service.NotifierOpt(app.notifiers),
	}
	if app.broker.ledgerView != nil {
		opts = append(opts, service.LedgerOpt(app.broker.ledgerView))
	}

	app.service = service.New(
		app.catalog,
		memory.NewCustomerStore(customers...),
		memory.NewCartStore(),
		processor,
		opts...,
	)
}

func (app *App) initInboundAdapters() {
	router := httphandler.NewRouter(
		app.service, httphandler.MetricsOpt(app.metrics),
	)
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, router)
}

func (app *App) Run(stopFn context.CancelFunc) {
	if app.broker.ledgerProc != nil {
		var wg sync.WaitGroup
		wg.Add(2)
		go app.broker.ledgerProc.Run(app.ctx, stopFn, &wg)
		go app.broker.ledgerView.Run(app.ctx, stopFn, &wg)
		wg.Wait()
	}

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if app.broker.producer != nil {
		app.broker.producer.Close()
	}
	if app.broker.ledgerProc != nil {
		app.broker.ledgerProc.Close()
	}
	if app.pool != nil {
		app.pool.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}

func customersFromConfig(cs []config.Customer) ([]domain.Customer, error) {
	out := make([]domain.Customer, len(cs))
	for i, c := range cs {
		balance, err := decimal.NewFromString(c.Balance)
		if err != nil {
			return nil, fmt.Errorf("customer %q balance: %w", c.ID, err)
		}
		if balance.IsNegative() {
			return nil, fmt.Errorf("customer %q balance is negative", c.ID)
		}
		out[i] = domain.Customer{ID: c.ID, Name: c.Name, Balance: balance}
	}
	return out, nil
}
