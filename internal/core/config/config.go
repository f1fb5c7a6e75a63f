package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	// CORSOrigins 为空时允许所有来源
	CORSOrigins []string
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

func (a App) IsProduction() bool { return strings.EqualFold(a.Env, "production") }

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	LeewaySec         int
}

func (j JWT) TTL() time.Duration    { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) Leeway() time.Duration { return time.Duration(j.LeewaySec) * time.Second }

type Redis struct {
	Enabled         bool   `mapstructure:"enabled"`
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	UserCacheTTLSec int    `mapstructure:"userCacheTTLSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Limits struct {
	RPS           float64
	Burst         int
	PerIPRPS      float64
	PerIPBurst    int
	MaxConcurrent int64
	MaxBodyBytes  int64
	TimeoutSec    int
}

// Seed 启动时确保存在的初始账号
type Seed struct {
	Enabled  bool
	Name     string
	Email    string
	Password string
	Role     string
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Limits Limits
	Seed   Seed
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "user-admin")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3000)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.corsOrigins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)

	// 无默认值的键也要注册，否则 Unmarshal 读不到环境变量
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "user-admin")
	v.SetDefault("jwt.accessTokenTTLMin", 7*24*60)
	v.SetDefault("jwt.leewaySec", 0)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:users.db?_busy_timeout=5000")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 0)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.userCacheTTLSec", 30)

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.perIPRPS", 20)
	v.SetDefault("limits.perIPBurst", 40)
	v.SetDefault("limits.maxConcurrent", 300)
	v.SetDefault("limits.maxBodyBytes", 1<<20)
	v.SetDefault("limits.timeoutSec", 10)

	v.SetDefault("seed.enabled", false)
	v.SetDefault("seed.name", "admin")
	v.SetDefault("seed.email", "")
	v.SetDefault("seed.password", "")
	v.SetDefault("seed.role", "admin")
}

// Load 读取 yaml + APP_ 前缀环境变量；配置文件缺失时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt.secret is required")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("config: jwt.accessTokenTTLMin must be positive")
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.Seed.Enabled && (c.Seed.Email == "" || c.Seed.Password == "") {
		return errors.New("config: seed.email and seed.password are required when seed is enabled")
	}
	return nil
}
