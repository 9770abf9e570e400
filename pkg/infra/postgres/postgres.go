package postgres_wrapper

import (
	"log"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	_ "github.com/lib/pq" // nolint
	"go.uber.org/zap"
	pg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// PostgresConfig configures the journal database. Writes always hit the
// primary; replica_sources, when set, serve post-hoc analysis reads through
// dbresolver.
type PostgresConfig struct {
	DataSource        string          `yaml:"data_source"`
	MigrationConnURL  string          `yaml:"migration_conn_url"`
	MaxOpenConns      int             `yaml:"max_open_conns"`
	MaxIdleConns      int             `yaml:"max_idle_conns"`
	ConnMaxLifeTimeMs int64           `yaml:"conn_max_life_time_ms"`
	ReplicaSources    []string        `yaml:"replica_sources"`
	LogLevel          logger.LogLevel `yaml:"log_level"`
	Location          string          `yaml:"location"`
}

// InitPostgres opens the journal database, registers read replicas and
// applies the pool settings.
func InitPostgres(cfg *PostgresConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      cfg.LogLevel,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(pg.Open(cfg.DataSource), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			loc, _ := time.LoadLocation(cfg.Location)
			return time.Now().In(loc)
		},
	})
	if err != nil {
		zap.S().Warnf("open journal db fail: %+v", err)
		return nil, err
	}

	if len(cfg.ReplicaSources) > 0 {
		var replicas []gorm.Dialector
		for _, source := range cfg.ReplicaSources {
			replicas = append(replicas, pg.Open(source))
		}
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			zap.S().Warnf("register journal db replicas fail: %+v", err)
			return nil, err
		}
		zap.S().Debugf("registered %d journal db replicas", len(cfg.ReplicaSources))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Warnf("get sql db instance fail: %+v", err)
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeTimeMs) * time.Millisecond)

	return db, nil
}

// InitPostgresWithBackoff retries the connection with exponential backoff
// until the journal database is reachable.
func InitPostgresWithBackoff(cfg *PostgresConfig) *gorm.DB {
	var db *gorm.DB
	err := backoff.Retry(func() error {
		var err error
		db, err = InitPostgres(cfg)
		if err != nil {
			zap.S().Warnf("connect journal db fail, retrying: %+v", err)
		}
		return err
	}, backoff.NewExponentialBackOff())
	if err != nil {
		panic(err)
	}
	return db
}
