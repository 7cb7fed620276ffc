package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const defaultPath = "./configs/config.local.yaml"

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
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Auth struct {
	InviteCode       string
	EnforceOwnership bool
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Cache struct {
	ReportTTLMin    int
	LocalMaxEntries int64
}

type DB struct {
	URL                string
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

type Report struct {
	Provider   string // gemini / openai / none
	APIKey     string
	Model      string
	BaseURL    string
	TimeoutSec int
}

type Events struct {
	AMQPURL           string
	Exchange          string
	PublishTimeoutSec int
}

type Tracing struct {
	Exporter string // none / stdout
}

type Limits struct {
	RPS               float64
	Burst             int
	PerIP             bool
	MaxConcurrent     int64
	MaxBodyBytes      int64
	RequestTimeoutSec int
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	Auth    Auth
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Cache   Cache
	Report  Report
	Events  Events
	Tracing Tracing
	Limits  Limits
}

// envAliases are plain variable names accepted next to the APP_ ones.
var envAliases = map[string][]string{
	"jwt.secret":      {"SECRET_KEY"},
	"auth.invitecode": {"REGISTRATION_KEY"},
	"db.url":          {"DATABASE_URL"},
	"report.apikey":   {"GEMINI_API_KEY", "OPENAI_API_KEY"},
	"redis.addr":      {"REDIS_ADDR"},
	"events.amqpurl":  {"AMQP_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "intern-management-system")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8000)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 90)
	v.SetDefault("app.http.idletimeoutsec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "intern-management-system")
	v.SetDefault("jwt.accesstokenttlmin", 60)

	v.SetDefault("auth.invitecode", "")
	v.SetDefault("auth.enforceownership", false)

	v.SetDefault("db.url", "sqlite:///./ims.db")
	v.SetDefault("db.driver", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.reportttlmin", 60)
	v.SetDefault("cache.localmaxentries", 10000)

	v.SetDefault("report.provider", "gemini")
	v.SetDefault("report.apikey", "")
	v.SetDefault("report.model", "")
	v.SetDefault("report.baseurl", "")
	v.SetDefault("report.timeoutsec", 30)

	v.SetDefault("events.amqpurl", "")
	v.SetDefault("events.exchange", "ims.events")
	v.SetDefault("events.publishtimeoutsec", 5)

	v.SetDefault("tracing.exporter", "none")

	v.SetDefault("limits.rps", 50)
	v.SetDefault("limits.burst", 100)
	v.SetDefault("limits.perip", true)
	v.SetDefault("limits.maxconcurrent", 256)
	v.SetDefault("limits.maxbodybytes", 1<<20)
	v.SetDefault("limits.requesttimeoutsec", 60)
}

// Load reads path (or CONFIG_PATH, or the local default) and overlays
// APP_* environment variables. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path, explicit = defaultPath, false
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		envKey := "APP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envKey}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, c.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret (SECRET_KEY) is required")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("config: jwt.accessTokenTTLMin must be positive")
	}
	if c.DB.URL == "" && c.DB.DSN == "" {
		return errors.New("config: db.url or db.dsn is required")
	}
	switch c.Report.Provider {
	case "gemini", "openai", "none":
	default:
		return fmt.Errorf("config: unknown report.provider %q", c.Report.Provider)
	}
	return nil
}
