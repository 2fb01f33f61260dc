package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	Auth          AuthConfig
	ServiceBus    ServiceBusConfig
	Elasticsearch ElasticsearchConfig
	NewRelic      NewRelicConfig
	Worker        WorkerConfig
	Log           LogConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            int
	Mode            string // debug, release, test
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string // silent, error, warn, info
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig holds TTLs for cached read models
type CacheConfig struct {
	ProfileTTL                time.Duration
	VerificationEmailCooldown time.Duration
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	Issuer        string
	Audience      string
	PublicKeyFile string
	HMACSecret    string
	Leeway        time.Duration
}

// ServiceBusConfig holds the Azure Service Bus configuration
type ServiceBusConfig struct {
	ConnectionString string
	TopicName        string
}

// ElasticsearchConfig holds the booking search index configuration
type ElasticsearchConfig struct {
	Enabled     bool
	Addresses   []string
	Username    string
	Password    string
	IndexPrefix string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// WorkerConfig holds the background worker configuration
type WorkerConfig struct {
	OverdueInterval time.Duration
	SweepTimeout    time.Duration
}

// LogConfig holds logging defaults, overridable by command line flags
type LogConfig struct {
	Level  string
	Format string
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/bookings")
		viper.SetConfigName("config")
	}

	// BOOKINGS_SERVER_PORT overrides server.port
	viper.SetEnvPrefix("BOOKINGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("No config file found, using defaults and environment variables")
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.readtimeout", "15s")
	viper.SetDefault("server.writetimeout", "15s")
	viper.SetDefault("server.shutdowntimeout", "30s")
	viper.SetDefault("server.allowedorigins", []string{"http://localhost:3000"})

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "bookings")
	viper.SetDefault("database.password", "bookings")
	viper.SetDefault("database.dbname", "bookings_db")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxopenconns", 50)
	viper.SetDefault("database.maxidleconns", 10)
	viper.SetDefault("database.connmaxlifetime", "30m")
	viper.SetDefault("database.loglevel", "warn")

	// Redis defaults
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("cache.profilettl", "5m")
	viper.SetDefault("cache.verificationemailcooldown", "60s")

	// Auth defaults - no default keys for security
	viper.SetDefault("auth.leeway", "30s")

	// Service Bus defaults - no default connection string for security
	viper.SetDefault("servicebus.topicname", "booking-events")

	// Elasticsearch defaults
	viper.SetDefault("elasticsearch.enabled", false)
	viper.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	viper.SetDefault("elasticsearch.indexprefix", "bookings")

	// New Relic defaults
	viper.SetDefault("newrelic.appname", "Bookings Service Local")
	viper.SetDefault("newrelic.enabled", false)

	// Worker defaults
	viper.SetDefault("worker.overdueinterval", "24h")
	viper.SetDefault("worker.sweeptimeout", "5m")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// Load loads the configuration
func Load() (*Config, error) {
	serverConfig := ServerConfig{
		Port:            viper.GetInt("server.port"),
		Mode:            viper.GetString("server.mode"),
		ReadTimeout:     viper.GetDuration("server.readtimeout"),
		WriteTimeout:    viper.GetDuration("server.writetimeout"),
		ShutdownTimeout: viper.GetDuration("server.shutdowntimeout"),
		AllowedOrigins:  viper.GetStringSlice("server.allowedorigins"),
	}

	dbConfig := DatabaseConfig{
		Host:            viper.GetString("database.host"),
		Port:            viper.GetInt("database.port"),
		User:            viper.GetString("database.user"),
		Password:        viper.GetString("database.password"),
		DBName:          viper.GetString("database.dbname"),
		SSLMode:         viper.GetString("database.sslmode"),
		MaxOpenConns:    viper.GetInt("database.maxopenconns"),
		MaxIdleConns:    viper.GetInt("database.maxidleconns"),
		ConnMaxLifetime: viper.GetDuration("database.connmaxlifetime"),
		LogLevel:        viper.GetString("database.loglevel"),
	}

	redisConfig := RedisConfig{
		Enabled:  viper.GetBool("redis.enabled"),
		Host:     viper.GetString("redis.host"),
		Port:     viper.GetInt("redis.port"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}

	cacheConfig := CacheConfig{
		ProfileTTL:                viper.GetDuration("cache.profilettl"),
		VerificationEmailCooldown: viper.GetDuration("cache.verificationemailcooldown"),
	}

	authConfig := AuthConfig{
		Issuer:        viper.GetString("auth.issuer"),
		Audience:      viper.GetString("auth.audience"),
		PublicKeyFile: viper.GetString("auth.publickeyfile"),
		HMACSecret:    viper.GetString("auth.hmacsecret"),
		Leeway:        viper.GetDuration("auth.leeway"),
	}

	serviceBusConfig := ServiceBusConfig{
		ConnectionString: viper.GetString("servicebus.connectionstring"),
		TopicName:        viper.GetString("servicebus.topicname"),
	}

	esConfig := ElasticsearchConfig{
		Enabled:     viper.GetBool("elasticsearch.enabled"),
		Addresses:   viper.GetStringSlice("elasticsearch.addresses"),
		Username:    viper.GetString("elasticsearch.username"),
		Password:    viper.GetString("elasticsearch.password"),
		IndexPrefix: viper.GetString("elasticsearch.indexprefix"),
	}

	newRelicConfig := NewRelicConfig{
		AppName:    viper.GetString("newrelic.appname"),
		LicenseKey: viper.GetString("newrelic.licensekey"),
		Enabled:    viper.GetBool("newrelic.enabled"),
	}

	workerConfig := WorkerConfig{
		OverdueInterval: viper.GetDuration("worker.overdueinterval"),
		SweepTimeout:    viper.GetDuration("worker.sweeptimeout"),
	}

	return &Config{
		Server:        serverConfig,
		Database:      dbConfig,
		Redis:         redisConfig,
		Cache:         cacheConfig,
		Auth:          authConfig,
		ServiceBus:    serviceBusConfig,
		Elasticsearch: esConfig,
		NewRelic:      newRelicConfig,
		Worker:        workerConfig,
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}, nil
}

// Validate checks that a token verification key is configured
func (c AuthConfig) Validate() error {
	if c.PublicKeyFile == "" && c.HMACSecret == "" {
		return fmt.Errorf("auth: one of auth.publickeyfile or auth.hmacsecret must be set")
	}
	return nil
}

// FormatIndex returns the prefixed name of a search index
func (c ElasticsearchConfig) FormatIndex(name string) string {
	if c.IndexPrefix == "" {
		return name
	}
	return fmt.Sprintf("%s-%s", c.IndexPrefix, name)
}
