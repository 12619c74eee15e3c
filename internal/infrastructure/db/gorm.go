package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p2p-lending/internal/domain/audit"
	"p2p-lending/internal/domain/borrower"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/lender"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/repayment"
)

// slogWriter routes gorm's logger into slog.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(slogWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		// duplicate-key violations surface as gorm.ErrDuplicatedKey
		TranslateError:       true,
		// OpenGormWithDialector pings explicitly after pool setup
		DisableAutomaticPing: true,
	}
}

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector opens a pooled handle and pings it once.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dial, gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	slog.Info("gorm: connected", "dialect", dial.Name())
	return db, nil
}

// OpenSQLite opens a sqlite database at path. A single connection is used so
// writers serialize the way row locks serialize them on MySQL, and so that
// ":memory:" databases are shared by every caller.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every table owned by the service.
func Models() []any {
	return []any{
		&borrower.Profile{},
		&lender.Preferences{},
		&loan.Loan{},
		&investment.Investment{},
		&repayment.Installment{},
		&audit.Transition{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
