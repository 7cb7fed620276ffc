package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Divyaanshvats/intern-management-system/internal/core/config"
	zaplog "github.com/Divyaanshvats/intern-management-system/internal/core/logger"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

type Opts struct {
	// URL wins over Driver/DSN when set.
	URL                string
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	// Logger receives gorm's own log lines; nil uses gorm's default writer.
	Logger *zap.Logger
}

func OptsFromConfig(c config.DB, l *zap.Logger) Opts {
	return Opts{
		URL:                c.URL,
		Driver:             c.Driver,
		DSN:                c.DSN,
		Username:           c.Username,
		Password:           c.Password,
		MaxOpenConns:       c.MaxOpenConns,
		MaxIdleConns:       c.MaxIdleConns,
		ConnMaxLifetimeMin: c.ConnMaxLifetimeMin,
		LogLevel:           c.LogLevel,
		Logger:             l,
	}
}

func NewGorm(o Opts) (*gorm.DB, error) {
	if o.URL != "" {
		driver, dsn, err := ParseURL(o.URL)
		if err != nil {
			return nil, err
		}
		o.Driver, o.DSN = driver, dsn
	}

	var dial gorm.Dialector
	memory := false
	switch o.Driver {
	case "sqlite":
		memory = strings.Contains(o.DSN, ":memory:")
		dial = sqlite.Open(o.DSN)
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
	if o.Logger != nil {
		o.Logger.Info("opening database", zap.String("driver", o.Driver), zap.String("dsn", maskDSN(o.DSN)))
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormLogger(o),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if memory {
		// every pooled connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	}
	db = db.Session(&gorm.Session{
		PrepareStmt:            true,
		CreateBatchSize:        200,
		SkipDefaultTransaction: true,
	})
	return db, nil
}

// NewMemory opens a migrated in-memory SQLite database.
func NewMemory() (*gorm.DB, error) {
	db, err := NewGorm(Opts{URL: "sqlite:///:memory:", LogLevel: "silent"})
	if err != nil {
		return nil, err
	}
	return db, AutoMigrate(db)
}

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{&domain.User{}, &domain.Evaluation{}}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogger(o Opts) logger.Interface {
	lvl := logger.Warn
	switch o.LogLevel {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	if o.Logger == nil {
		return logger.Default.LogMode(lvl)
	}
	std, err := zaplog.ToStdLogger(o.Logger.WithOptions(zap.WithCaller(false)), zapcore.InfoLevel)
	if err != nil {
		return logger.Default.LogMode(lvl)
	}
	return logger.New(std, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}
