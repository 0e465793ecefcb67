package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "announcebot/core/config"
	coredatabase "announcebot/core/database"
	"announcebot/core/logger"
)

// Options control the bootstrap pipeline: logger first, then the storage
// backend selected by storage.driver.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when the JSON file backend is selected.
type Result struct {
	DB *sqlx.DB
}

// DatabaseConfig converts the config storage section into the database
// package's connection settings.
func DatabaseConfig(pg coreconfig.PostgresConfig) coredatabase.Config {
	return coredatabase.Config{
		Host:           pg.Host,
		Port:           pg.Port,
		User:           pg.User,
		Password:       pg.Password,
		Name:           pg.Name,
		SSLMode:        pg.SSLMode,
		MaxConnections: pg.MaxConnections,
	}
}

// Run initializes the logger and, for the Postgres backend, connects to
// the database and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Config.Storage.Driver != coreconfig.StoragePostgres {
		return &Result{}, nil
	}

	dbCfg := DatabaseConfig(opts.Config.Storage.Postgres)

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}
