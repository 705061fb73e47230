// Package server wires configuration, backends and handlers into an echo
// instance shared by the HTTP and Lambda entry points.
package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	adaptermiddleware "pizza-authz/internal/adapters/http/middleware"
	adapterlogger "pizza-authz/internal/adapters/logger"
	"pizza-authz/internal/adapters/metrics"
	"pizza-authz/internal/application"
	"pizza-authz/internal/infrastructure/auth"
	"pizza-authz/internal/infrastructure/config"
	"pizza-authz/internal/infrastructure/dynamodb"
	"pizza-authz/internal/infrastructure/memory"
	"pizza-authz/internal/infrastructure/revocation"
	httpiface "pizza-authz/internal/interfaces/http"
	"pizza-authz/internal/ports"
)

type repositories struct {
	users      ports.UserRepository
	franchises ports.FranchiseRepository
	orders     ports.OrderRepository
	menu       ports.MenuRepository
}

// New builds the router for cfg. The returned cleanup releases backend
// connections and is safe to call when New fails.
func New(ctx context.Context, cfg config.Config, logger *adapterlogger.SlogLogger) (*echo.Echo, func(), error) {
	cleanup := func() {}

	var ddb *dynamodb.Client
	if cfg.NeedsDynamoDB() {
		client, err := dynamodb.NewClient(ctx, cfg.Region, cfg.TableName)
		if err != nil {
			return nil, cleanup, fmt.Errorf("initialize dynamodb client: %w", err)
		}
		ddb = client
	}

	var repos repositories
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		repos = repositories{
			users:      dynamodb.NewUserRepository(ddb),
			franchises: dynamodb.NewFranchiseRepository(ddb),
			orders:     dynamodb.NewOrderRepository(ddb),
			menu:       dynamodb.NewMenuRepository(ddb),
		}
	default:
		store := memory.NewStore()
		repos = repositories{users: store.Users(), franchises: store.Franchises(), orders: store.Orders(), menu: store.Menu()}
	}

	var sessions ports.RevocationStore
	switch cfg.RevocationBackend {
	case config.BackendDynamoDB:
		sessions = dynamodb.NewRevocationStore(ddb)
	case config.BackendRedis:
		client, err := revocation.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, cleanup, fmt.Errorf("initialize redis client: %w", err)
		}
		cleanup = func() { _ = client.Close() }
		sessions = revocation.NewRedisStore(client)
	default:
		sessions = revocation.NewMemoryStore()
	}

	codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return nil, cleanup, err
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	collector := metrics.NewCollector()

	if err := application.EnsureAdmin(ctx, repos.users, hasher, logger, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, cleanup, fmt.Errorf("bootstrap admin: %w", err)
	}

	authz := application.NewAuthorizer(logger, collector)
	sessionMgr := application.NewSessionManager(repos.users, codec, sessions, hasher, logger, collector)
	userSvc := application.NewUserService(repos.users, sessionMgr, hasher, authz, logger)
	menuSvc := application.NewMenuService(repos.menu, authz)
	franchiseSvc := application.NewFranchiseService(repos.franchises, repos.users, authz, logger)
	orderSvc := application.NewOrderService(repos.orders, repos.franchises, repos.menu, authz, logger)

	e := httpiface.NewRouter(httpiface.Handlers{
		Auth:       httpiface.NewAuthHandler(sessionMgr, logger),
		Users:      httpiface.NewUsersHandler(userSvc, logger),
		Orders:     httpiface.NewOrdersHandler(orderSvc, menuSvc, logger),
		Franchises: httpiface.NewFranchisesHandler(franchiseSvc, logger),
		Metrics:    collector.Handler(),
	}, httpiface.Middleware{
		XRay:          adaptermiddleware.XRayMiddleware("pizza-authz"),
		Metrics:       collector.Middleware(),
		RequestLogger: adaptermiddleware.RequestLogger(logger),
		RequireAuth:   adaptermiddleware.RequireAuth(sessionMgr, logger),
		OptionalAuth:  adaptermiddleware.OptionalAuth(sessionMgr, logger),
	})
	logger.Info(ctx, "router ready",
		"store_backend", string(cfg.StoreBackend),
		"revocation_backend", string(cfg.RevocationBackend),
	)
	return e, cleanup, nil
}
