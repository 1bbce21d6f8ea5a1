package app

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/poofware/listings-service/internal/config"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/utils"
)

const (
	connectTimeout = 5 * time.Second
	schemaTimeout  = 30 * time.Second
)

//go:embed schema.sql
var schemaSQL string

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

func NewApp(cfg *config.Config) (*App, error) {
	effectiveURL := cfg.DBUrl
	if cfg.LDFlag_UsingIsolatedSchema {
		var err error
		effectiveURL, err = utils.WithIsolatedRole(cfg.DBUrl, cfg.UniqueRunnerID, cfg.UniqueRunNumber)
		if err != nil {
			return nil, err
		}
		utils.Logger.Infof("Using isolated schema for %s; role=%s", cfg.AppName, strings.ToLower(cfg.UniqueRunnerID+"-"+cfg.UniqueRunNumber))
	} else {
		utils.Logger.Infof("Isolated schema disabled; using public schema for %s.", cfg.AppName)
	}

	dbPool, err := connectWithRetry(effectiveURL, cfg.AppName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := ApplySchema(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, err
	}
	utils.Logger.Info("Schema applied")

	return &App{Config: cfg, DB: dbPool}, nil
}

// ApplySchema creates any missing tables and indexes. It is idempotent.
func ApplySchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func connectWithRetry(url, appName string) (*pgxpool.Pool, error) {
	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = constants.DBConnectRetryBackoff
	)
	for i := 1; i <= constants.DBConnectMaxAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		dbPool, err = newDBPool(ctx, url)
		cancel()
		if err == nil {
			utils.Logger.Infof("%s connected to DB on attempt %d", appName, i)
			return dbPool, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, constants.DBConnectMaxAttempts, backoff,
		)
		if i == constants.DBConnectMaxAttempts {
			break
		}
		time.Sleep(backoff)
	}
	return nil, fmt.Errorf("unable to connect after %d attempts: %w", constants.DBConnectMaxAttempts, err)
}

// Ping lets the health controller check the pool.
func (a *App) Ping(ctx context.Context) error {
	return a.DB.Ping(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Infof("%s DB connection closed.", a.Config.AppName)
	}
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// ConnectConfig is lazy; make sure the server is actually reachable.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
