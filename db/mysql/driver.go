package mysql

import (
	"errors"

	"github.com/kasuganosora/pacdefender/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoDSN is returned when mysql mode is selected without a DSN.
var ErrNoDSN = errors.New("mysql: database.mysql_dsn is empty")

// Open connects to MySQL and applies the pool limits from cfg. Zero limits
// keep database/sql's defaults.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.MySQLDSN == "" {
		return nil, ErrNoDSN
	}
	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MySQLMaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MySQLMaxOpen)
	}
	if cfg.MySQLMaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MySQLMaxIdle)
	}
	if cfg.MySQLMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MySQLMaxLife)
	}
	return db, nil
}
