package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	commerceserver "github.com/ydbloom/commerce-api/go"

	ordersmemory "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/memory"
	ordersnotify "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/notify"
	ordersobs "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/observability"
	ordersapp "github.com/ydbloom/commerce-api/internal/domains/orders/application"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	paymentsapp "github.com/ydbloom/commerce-api/internal/domains/payments/application"
	platformobservability "github.com/ydbloom/commerce-api/internal/platform/observability"
	platformpostgres "github.com/ydbloom/commerce-api/internal/platform/postgres"
	"github.com/ydbloom/commerce-api/internal/realtime"
	"github.com/ydbloom/commerce-api/internal/shared/auth"

	catalogmemory "github.com/ydbloom/commerce-api/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/ydbloom/commerce-api/internal/domains/catalog/adapters/persistence/postgres"
	orderspostgres "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/persistence/postgres"
	platformmigrations "github.com/ydbloom/commerce-api/internal/platform/migrations"

	providerclient "github.com/ydbloom/commerce-api/internal/clients/http/provider"
)

// Run boots the commerce HTTP API with observability, repositories, and the
// realtime hub wired.
func Run(ctx context.Context) error {
	const serviceName = "commerce-api"

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	deps, cleanup, err := buildPersistence(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	deps.Provider = buildProvider(cfg, logger)

	hub := realtime.NewHub(realtime.WithLogger(logger))
	notifier := ordersnotify.New(logger)

	coreService := ordersapp.NewService(deps,
		ordersapp.WithNotifier(notifier),
		ordersapp.WithBroadcaster(hub),
		ordersapp.WithCurrency(cfg.Currency),
	)
	orderService := ordersobs.New(coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	webhookOpts := []paymentsapp.Option{
		paymentsapp.WithNotifier(notifier),
		paymentsapp.WithLogger(logger),
	}
	if cfg.WebhookTolerance > 0 {
		webhookOpts = append(webhookOpts, paymentsapp.WithTolerance(cfg.WebhookTolerance))
	}
	webhookHandler := paymentsapp.NewHandler(orderService, cfg.WebhookSecret, webhookOpts...)

	tokens := buildTokenStore(logger)
	wsHandler := realtime.NewHandler(hub, orderService, logger)

	handlers := commerceserver.ApiHandleFunctions{
		OrdersAPI:   commerceserver.NewOrdersAPI(orderService),
		CartAPI:     commerceserver.NewCartAPI(deps.Carts, deps.Products),
		AdminAPI:    commerceserver.NewAdminAPI(orderService),
		WebhookAPI:  commerceserver.NewWebhookAPI(webhookHandler),
		RealtimeAPI: commerceserver.NewRealtimeAPI(wsHandler),
	}
	guard := commerceserver.RouteGuard{
		Authenticate: auth.Middleware(tokens),
		RequireStaff: auth.RequireStaff(),
	}

	router := commerceserver.NewRouter(handlers, guard)
	router.Use(otelgin.Middleware(serviceName))

	addr := ":" + cfg.Port
	logger.Info("commerce API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("commerce API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// buildPersistence wires the repository set against postgres when a DSN is
// configured and falls back to the in-memory adapters otherwise.
func buildPersistence(ctx context.Context, cfg Config, logger *slog.Logger) (ordersapp.Deps, func(), error) {
	db, cleanup := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		catalog := catalogmemory.NewStore()
		orders := ordersmemory.NewOrderRepository()
		carts := ordersmemory.NewCartRepository()
		return ordersapp.Deps{
			Tx:       ordersmemory.NewTxManager(catalog, orders, carts),
			Orders:   orders,
			Carts:    carts,
			Products: catalog,
			Ledger:   catalog,
			Coupons:  catalog,
		}, cleanup, nil
	}
	if err := platformmigrations.Run(db); err != nil {
		cleanup()
		return ordersapp.Deps{}, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	catalog := catalogpostgres.NewRepository(db)
	return ordersapp.Deps{
		Tx:       platformpostgres.NewTxManager(db),
		Orders:   orderspostgres.NewOrderRepository(db),
		Carts:    orderspostgres.NewCartRepository(db),
		Products: catalog,
		Ledger:   catalog,
		Coupons:  catalog,
	}, cleanup, nil
}

func buildProvider(cfg Config, logger *slog.Logger) ordersports.PaymentProvider {
	if cfg.ProviderBaseURL == "" {
		logger.Warn("PROVIDER_BASE_URL not set, using sandbox payment provider")
		return ordersmemory.NewSandboxProvider()
	}
	client, err := providerclient.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, nil)
	if err != nil {
		logger.Warn("failed to configure payment provider, using sandbox", slog.String("error", err.Error()))
		return ordersmemory.NewSandboxProvider()
	}
	logger.Info("payment provider configured", slog.String("base_url", cfg.ProviderBaseURL))
	return client
}

// buildTokenStore seeds the in-memory token store from AUTH_TOKENS, a
// comma-separated list of token:userID[:staff] entries.
func buildTokenStore(logger *slog.Logger) *auth.MemoryTokenStore {
	store := auth.NewMemoryTokenStore()
	raw := strings.TrimSpace(os.Getenv("AUTH_TOKENS"))
	if raw == "" {
		logger.Warn("AUTH_TOKENS not set, no API tokens configured")
		return store
	}
	count := 0
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 {
			logger.Warn("skipping malformed AUTH_TOKENS entry")
			continue
		}
		userID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || userID <= 0 {
			logger.Warn("skipping AUTH_TOKENS entry with invalid user id")
			continue
		}
		identity := auth.Identity{UserID: userID}
		if len(parts) > 2 && parts[2] == "staff" {
			identity.Staff = true
		}
		store.Grant(parts[0], identity)
		count++
	}
	logger.Info("API tokens configured", slog.Int("count", count))
	return store
}
