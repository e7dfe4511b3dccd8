package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Paddlers/internal/shared/logs"
	"Paddlers/internal/shared/serverconfig"
)

// Open 按 cfg.Driver 打开 MySQL（线上）或 SQLite（本地/单机）。
func Open(cfg serverconfig.DBConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logs.NewGormLogger(logger.Warn, cfg.SlowThreshold),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		// parseTime 保证 DATETIME(6) 扫描为 time.Time；loc=UTC 与模拟时间一致
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, charset)
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// SQLite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}

	logs.Info("open db success",
		zap.String("driver", cfg.Driver),
		zap.String("host", cfg.Host),
		zap.String("db", cfg.DBName),
		zap.String("path", cfg.Path),
	)
	return db, nil
}
