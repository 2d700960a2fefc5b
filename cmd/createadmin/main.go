// Command createadmin bootstraps the initial admin account against the
// configured persistence backend. It is idempotent: an existing admin with
// the same email is left alone.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ferretools/shopapi/internal/config"
	domainuser "github.com/ferretools/shopapi/internal/domain/user"
	"github.com/ferretools/shopapi/internal/infrastructure/auth"
	"github.com/ferretools/shopapi/internal/infrastructure/id"
	"github.com/ferretools/shopapi/internal/infrastructure/mysql"
	"github.com/ferretools/shopapi/internal/pkg/logging"
)

func main() {
	var (
		email    = flag.String("email", "admin@example.com", "admin email")
		password = flag.String("password", "", "admin password (required)")
	)
	flag.Parse()

	cfg, err := config.Load(getenvDefault("CONFIG_FILE", "config.yaml"))
	if err != nil {
		panic(err)
	}

	logger := logging.MustNew(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()

	if *password == "" {
		logger.Fatal("admin_password_required")
	}
	if cfg.Persistence != config.PersistenceMySQL {
		logger.Fatal("createadmin_requires_mysql_persistence")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("mysql_open_failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("mysql_ping_failed", zap.Error(err))
	}

	users := mysql.NewUserRepository(db)

	if _, err := users.GetByEmail(ctx, *email); err == nil {
		logger.Info("admin_already_exists", zap.String("email", *email))
		return
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		logger.Fatal("admin_lookup_failed", zap.Error(err))
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(*password)
	if err != nil {
		logger.Fatal("password_hash_failed", zap.Error(err))
	}

	admin, err := domainuser.New(id.NewUUIDGenerator().NewID(),
		"Admin", "User", 35, *email, hash, domainuser.RoleAdmin, "")
	if err != nil {
		logger.Fatal("admin_build_failed", zap.Error(err))
	}
	if err := users.Insert(ctx, admin); err != nil {
		logger.Fatal("admin_insert_failed", zap.Error(err))
	}

	logger.Info("admin_created", zap.String("email", *email))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
