package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ferretools/shopapi/internal/application/carts"
	"github.com/ferretools/shopapi/internal/application/catalog"
	"github.com/ferretools/shopapi/internal/application/checkout"
	"github.com/ferretools/shopapi/internal/application/identity"
	"github.com/ferretools/shopapi/internal/application/mockdata"
	"github.com/ferretools/shopapi/internal/config"
	domaincart "github.com/ferretools/shopapi/internal/domain/cart"
	domainproduct "github.com/ferretools/shopapi/internal/domain/product"
	domainticket "github.com/ferretools/shopapi/internal/domain/ticket"
	domainuser "github.com/ferretools/shopapi/internal/domain/user"
	"github.com/ferretools/shopapi/internal/infrastructure/auth"
	"github.com/ferretools/shopapi/internal/infrastructure/httpapi"
	"github.com/ferretools/shopapi/internal/infrastructure/id"
	"github.com/ferretools/shopapi/internal/infrastructure/memory"
	"github.com/ferretools/shopapi/internal/infrastructure/mysql"
	"github.com/ferretools/shopapi/internal/infrastructure/rediscache"
	"github.com/ferretools/shopapi/internal/pkg/logging"
	"github.com/ferretools/shopapi/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load(getenvDefault("CONFIG_FILE", "config.yaml"))
	if err != nil {
		panic(err)
	}

	logger := logging.MustNew(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		productRepo domainproduct.Repository
		cartRepo    domaincart.Repository
		ticketRepo  domainticket.Repository
		userRepo    domainuser.Repository
	)

	switch cfg.Persistence {
	case config.PersistenceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			logger.Fatal("mysql_open_failed", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("mysql_ping_failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		logger.Info("mysql_connected")

		productRepo = mysql.NewProductRepository(db)
		cartRepo = mysql.NewCartRepository(db)
		ticketRepo = mysql.NewTicketRepository(db)
		userRepo = mysql.NewUserRepository(db)
	default:
		productRepo = memory.NewProductRepository()
		cartRepo = memory.NewCartRepository()
		ticketRepo = memory.NewTicketRepository()
		userRepo = memory.NewUserRepository()
		logger.Info("memory_persistence_selected")
	}

	var idemStore checkout.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis_ping_failed", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		logger.Info("redis_connected")
		idemStore = rediscache.NewIdempotencyStore(rdb)
	} else {
		idemStore = memory.NewIdempotencyStore(24 * time.Hour)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	idGenerator := id.NewUUIDGenerator()
	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	checkoutSvc := checkout.NewService(productRepo, cartRepo, ticketRepo, idemStore, idGenerator, m)
	cartsSvc := carts.NewService(cartRepo, productRepo, idGenerator)
	catalogSvc := catalog.NewService(productRepo, idGenerator)
	identitySvc := identity.NewService(userRepo, cartRepo, hasher, tokens, idGenerator)
	mockdataSvc := mockdata.NewService(userRepo, productRepo, cartRepo, hasher, idGenerator)

	handler := httpapi.NewHandler(checkoutSvc, cartsSvc, catalogSvc, identitySvc, mockdataSvc, tokens, httpapi.SeedLimits{
		MaxUsers:    cfg.Seed.MaxUsers,
		MaxProducts: cfg.Seed.MaxProducts,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httpapi.Observability(logger, m)(handler.Router()))

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
