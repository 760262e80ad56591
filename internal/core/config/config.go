package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 非空则同时写文件并按大小切割
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type JWT struct {
	Secret             string
	Issuer             string
	AccessTokenTTLHour int // 默认 24
}

type Redis struct {
	Addr            string `mapstructure:"addr"` // 为空则不启用缓存
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	BookCacheTTLSec int    `mapstructure:"book_cache_ttl_sec"`
}

type DB struct {
	Driver             string // postgres / mysql / sqlite
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Pagination struct {
	PerPage    int `mapstructure:"per_page"`
	MaxPerPage int `mapstructure:"max_per_page"`
}

type Config struct {
	App        App
	Log        Log
	JWT        JWT
	DB         DB
	Redis      Redis      `mapstructure:"redis"`
	Pagination Pagination `mapstructure:"pagination"`
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("jwt.issuer", "go-library-api")
	v.SetDefault("jwt.accesstokenttlhour", 24)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "library.db")
	v.SetDefault("db.automigrate", true)
	v.SetDefault("pagination.per_page", 20)
	v.SetDefault("pagination.max_per_page", 100)
	v.SetDefault("redis.book_cache_ttl_sec", 30)

	// 配置文件可选：读不到就全部走默认值 + 环境变量
	if err := v.ReadInConfig(); err != nil {
		log.Printf("read config %s: %v (using defaults)", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}
