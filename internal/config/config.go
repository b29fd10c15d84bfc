// Package config loads runtime settings from the environment, with .env
// support for local development.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	DBType string
	DBPath string
	DBUrl  string

	CacheBackend   string
	CacheTTL       time.Duration
	CacheMaxItems  int
	CacheDir       string
	CacheMaxBytes  int64
	RedisAddr      string
	MemoryWatch    string
	IndexCheck     string

	OCRBinary   string
	OCRLanguage string
	OCRTimeout  time.Duration

	SearchMode string
	Workers    int

	LogLevel string
}

func LoadConfig() *Config {
	// Missing .env is fine, the environment alone is a full configuration.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PDFSEARCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("db.type", "sqlite")
	v.SetDefault("db.path", "pdf_data.db")
	v.SetDefault("db.url", "")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.max_items", 256)
	v.SetDefault("cache.dir", ".cache")
	v.SetDefault("cache.max_bytes", int64(256*1024*1024))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("jobs.memory_watch", "@every 30s")
	v.SetDefault("jobs.index_check", "@every 10m")

	v.SetDefault("ocr.binary", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.timeout", "30s")

	v.SetDefault("search.mode", "like")
	v.SetDefault("workers", 5)
	v.SetDefault("log.level", "info")

	cnf := &Config{
		DBType: v.GetString("db.type"),
		DBPath: v.GetString("db.path"),
		DBUrl:  v.GetString("db.url"),

		CacheBackend:  v.GetString("cache.backend"),
		CacheTTL:      v.GetDuration("cache.ttl"),
		CacheMaxItems: v.GetInt("cache.max_items"),
		CacheDir:      v.GetString("cache.dir"),
		CacheMaxBytes: v.GetInt64("cache.max_bytes"),
		RedisAddr:     v.GetString("redis.addr"),
		MemoryWatch:   v.GetString("jobs.memory_watch"),
		IndexCheck:    v.GetString("jobs.index_check"),

		OCRBinary:   v.GetString("ocr.binary"),
		OCRLanguage: v.GetString("ocr.language"),
		OCRTimeout:  v.GetDuration("ocr.timeout"),

		SearchMode: v.GetString("search.mode"),
		Workers:    v.GetInt("workers"),

		LogLevel: v.GetString("log.level"),
	}

	if level, err := logrus.ParseLevel(cnf.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	return cnf
}

// GetDb opens the configured database. Startup cannot proceed without one,
// so failures panic like the rest of the boot path.
func GetDb(cnf *Config) *gorm.DB {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var dialector gorm.Dialector
	switch cnf.DBType {
	case "postgres":
		dialector = postgres.Open(cnf.DBUrl)
	default:
		dialector = sqlite.Open(cnf.DBPath + "?_foreign_keys=on")
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		logrus.Errorf("failed to connect to %s database: %v", cnf.DBType, err)
		panic(err)
	}
	return db
}
