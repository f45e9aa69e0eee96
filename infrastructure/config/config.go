package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Match    MatchConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Cors     CorsConfig
	Logger   LoggerConfig
	Jaeger   JaegerConfig
	Sentry   SentryConfig
}

type ServerConfig struct {
	InternalPort string
	ExternalPort string
	RunMode      string
	Domain       string
}

type MatchConfig struct {
	GraceWindow   time.Duration
	SweepInterval time.Duration
	StoreTimeout  time.Duration
	// RoomStore is "mongo" or "memory", QueueStore is "redis" or "memory".
	RoomStore  string
	QueueStore string
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type LoggerConfig struct {
	FilePath string
	Encoding string
	Level    string
}

type PostgresConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	DbName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	Db           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	PoolTimeout  time.Duration
}

type RabbitMQConfig struct {
	Enabled  bool
	URI      string
	Exchange string
	// PublishRate is the number of notifications published per second.
	PublishRate  float64
	PublishBurst int
}

type CorsConfig struct {
	AllowOrigins string
}

type JaegerConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
}

type SentryConfig struct {
	Dsn            string
	Debug          bool
	SendDefaultPII bool
}

func GetConfig() *Config {
	cfgPath := getConfigPath(os.Getenv("APP_ENV"))
	v, err := LoadConfig(cfgPath, "yml")
	if err != nil {
		log.Fatalf("Error in load config %v", err)
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		log.Fatalf("Error in parse config %v", err)
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.Server.ExternalPort = envPort
		log.Printf("Set external port from environment -> %s", cfg.Server.ExternalPort)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		log.Printf("Unable to parse config: %v", err)
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(filename string, fileType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigName(filename)
	setDefaults(v)

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./infrastructure/config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../infrastructure/config")
	v.AddConfigPath("../../config")

	if wd, err := os.Getwd(); err == nil {
		v.AddConfigPath(filepath.Join(wd, "config"))
		v.AddConfigPath(filepath.Join(wd, "infrastructure", "config"))
	}

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		log.Printf("Unable to read config: %v", err)
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("match.graceWindow", 5*time.Minute)
	v.SetDefault("match.sweepInterval", 10*time.Second)
	v.SetDefault("match.storeTimeout", 5*time.Second)
	v.SetDefault("match.roomStore", "memory")
	v.SetDefault("match.queueStore", "memory")
	v.SetDefault("mongo.database", "trio")
	v.SetDefault("mongo.connectTimeout", 10*time.Second)
	v.SetDefault("rabbitmq.exchange", "trio.rooms")
	v.SetDefault("rabbitmq.publishRate", 50)
	v.SetDefault("rabbitmq.publishBurst", 10)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("jaeger.serviceName", "trio")
}

func getConfigPath(env string) string {
	switch env {
	case "docker":
		return "config-docker"
	case "production":
		return "config-production"
	default:
		return "config-development"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.InternalPort == "" {
		return errors.New("server.internalPort is required")
	}
	if c.Server.ExternalPort == "" {
		return errors.New("server.externalPort is required")
	}

	if c.Match.GraceWindow <= 0 {
		return errors.New("match.graceWindow must be positive")
	}
	if c.Match.SweepInterval <= 0 {
		return errors.New("match.sweepInterval must be positive")
	}
	if c.Match.StoreTimeout <= 0 {
		return errors.New("match.storeTimeout must be positive")
	}

	switch c.Match.RoomStore {
	case "memory":
	case "mongo":
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required when match.roomStore is mongo")
		}
	default:
		return fmt.Errorf("match.roomStore %q is not supported", c.Match.RoomStore)
	}

	switch c.Match.QueueStore {
	case "memory":
	case "redis":
		if c.Redis.Host == "" || c.Redis.Port == "" {
			return errors.New("redis.host and redis.port are required when match.queueStore is redis")
		}
	default:
		return fmt.Errorf("match.queueStore %q is not supported", c.Match.QueueStore)
	}

	if c.Postgres.Enabled {
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}
		if c.Postgres.Port == "" {
			return errors.New("postgres.port is required")
		}
		if c.Postgres.DbName == "" {
			return errors.New("postgres.dbName is required")
		}
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URI == "" {
		return errors.New("rabbitmq.uri is required")
	}

	return nil
}

// UsesRedis reports whether the wait queue, and with it the rate limiter, run on redis.
func (c *Config) UsesRedis() bool {
	return c.Match.QueueStore == "redis"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.RunMode == "debug" || c.Server.RunMode == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.RunMode == "release" || c.Server.RunMode == "production"
}

func (c *Config) GetPostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.DbName,
		c.Postgres.SSLMode,
	)
}

func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%s", c.Server.InternalPort)
}
