package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMongo    = "mongo"
	StorageDriverMemory   = "memory"

	LockerDriverLocal = "local"
	LockerDriverRedis = "redis"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Logs     LogsConfig     `toml:"logs"`
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Mongo    MongoConfig    `toml:"mongo"`
	Locker   LockerConfig   `toml:"locker"`
	Metrics  MetricsConfig  `toml:"metrics"`
	CORS     CORSConfig     `toml:"cors"`
}

// ServerConfig таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
	// RequestTimeout ограничивает время ожидания блокировки на запись
	RequestTimeout int `toml:"request_timeout"`
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type StorageConfig struct {
	Driver string `toml:"driver"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	AutoMigrate     bool   `toml:"auto_migrate"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// MongoConfig если URI пуст, он собирается из User, Password и Cluster
type MongoConfig struct {
	URI            string `toml:"uri"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Cluster        string `toml:"cluster"`
	Database       string `toml:"database"`
	Collection     string `toml:"collection"`
	ConnectTimeout int    `toml:"connect_timeout"`
}

// ConnectionURI строка подключения к MongoDB (mongodb+srv для Atlas)
func (c MongoConfig) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Cluster)
}

type LockerConfig struct {
	Driver        string `toml:"driver"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	// TTL и RetryInterval в миллисекундах
	TTL           int `toml:"ttl_ms"`
	RetryInterval int `toml:"retry_interval_ms"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Load читает .env (если есть), затем TOML файл и переменные окружения
// Секреты из окружения перекрывают значения файла
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DB_PASSWORD":       &c.Database.Password,
		"MONGO_DB_USER":     &c.Mongo.User,
		"MONGO_DB_PASSWORD": &c.Mongo.Password,
		"MONGO_DB_CLUSTER":  &c.Mongo.Cluster,
		"MONGO_URI":         &c.Mongo.URI,
		"REDIS_PASSWORD":    &c.Locker.RedisPassword,
	}
	for name, target := range overrides {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			*target = value
		}
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 15)
	setDefault(&c.Server.WriteTimeout, 15)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 10)
	setDefault(&c.Server.RequestTimeout, 5)

	setDefault(&c.Logs.Level, "info")
	setDefault(&c.Storage.Driver, StorageDriverPostgres)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.SSLMode, "disable")
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)

	setDefault(&c.Mongo.Database, "slots_db")
	setDefault(&c.Mongo.Collection, "slots")
	setDefault(&c.Mongo.ConnectTimeout, 10)

	setDefault(&c.Locker.Driver, LockerDriverLocal)
	setDefault(&c.Locker.TTL, 10000)
	setDefault(&c.Locker.RetryInterval, 50)

	setDefault(&c.Metrics.Path, "/metrics")
	setDefault(&c.Metrics.ServiceName, "slot_calendar")
}

// Validate проверяет согласованность выбранных драйверов и их настроек
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			problems = append(problems, "database.host and database.dbname are required for postgres storage")
		}
	case StorageDriverMongo:
		if c.Mongo.URI == "" && c.Mongo.Cluster == "" {
			problems = append(problems, "mongo.uri or mongo.cluster (MONGO_DB_CLUSTER) is required for mongo storage")
		}
	case StorageDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Locker.Driver {
	case LockerDriverLocal:
	case LockerDriverRedis:
		if c.Locker.RedisAddr == "" {
			problems = append(problems, "locker.redis_addr is required for redis locker")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown locker.driver %q", c.Locker.Driver))
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("server.http_port %d out of range", c.Server.HTTPPort))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func setDefault[T comparable](target *T, value T) {
	var zero T
	if *target == zero {
		*target = value
	}
}
