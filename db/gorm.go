package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Tracksmith/config"
	"Tracksmith/logger"
	"Tracksmith/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var GormDB *gorm.DB

func gormConfig(level string) *gorm.Config {
	mode := gormlogger.Warn
	if level == "debug" {
		mode = gormlogger.Info
	}
	return &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(mode),
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// ConnectGormDB opens the project database selected by cfg.DBDriver and
// migrates the project models. With sqlite the file's directory is created
// first and the pool is limited to one connection, since sqlite allows a
// single writer; mysql gets the usual idle/open limits.
func ConnectGormDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gdb, err := Open(dialector, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.DBDriver == "mysql" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite serializes writers anyway.
		sqlDB.SetMaxOpenConns(1)
	}

	GormDB = gdb
	logger.Info("connected to database", logger.String("driver", gdb.Dialector.Name()))
	return gdb, nil
}

// Open connects with dialector and migrates the project models.
func Open(dialector gorm.Dialector, logLevel string) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, gormConfig(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}
	if err := AutoMigrateModels(gdb, model.AllModels()...); err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateModels(gdb *gorm.DB, models ...interface{}) error {
	if gdb == nil {
		return fmt.Errorf("GORM database not initialized")
	}
	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	return nil
}

func CloseGormDB(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
