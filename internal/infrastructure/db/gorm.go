package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options sizes the connection pool and routes gorm's SQL log.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// Statements slower than this are logged at warn.
	SlowThreshold time.Duration
	// Nil discards SQL logging.
	Log *zap.Logger
}

func DefaultOptions(log *zap.Logger) Options {
	return Options{
		MaxOpenConns:    30,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
		SlowThreshold:   200 * time.Millisecond,
		Log:             log,
	}
}

func OpenGorm(dsn string, opts Options) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), opts)
}

// OpenGormWithDialector opens gorm on any dialector, sizes the pool and pings.
func OpenGormWithDialector(dial gorm.Dialector, opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: sqlLogger(opts),
		// we ping ourselves below, once
		DisableAutomaticPing: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func sqlLogger(opts Options) logger.Interface {
	if opts.Log == nil {
		return logger.Discard
	}
	return logger.New(zap.NewStdLog(opts.Log.Named("sql")), logger.Config{
		SlowThreshold:             opts.SlowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
