package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "./config.yml"
	defaultEnvFile    = "./config.env"
	defaultEnvPrefix  = "BKAP"
	defaultStoreFile  = "./data/books.json"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"BKAP_GIT_COMMIT"`
	GitTag                  string        `yaml:"git_tag" envconfig:"BKAP_GIT_TAG"`
	BuildTime               string        `yaml:"build_time" envconfig:"BKAP_BUILD_TIME"`
	IsProduction            bool          `yaml:"is_production" envconfig:"BKAP_IS_PRODUCTION"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"BKAP_LOG_LEVEL"`
	LogFile                 string        `yaml:"log_file" envconfig:"BKAP_LOG_FILE"`
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"BKAP_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"BKAP_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig  `yaml:"server"`
	Store                   StoreConfig   `yaml:"store"`
	Redis                   RedisConfig   `yaml:"redis"`
	BoltDB                  BoltDBConfig  `yaml:"boltdb"`
	SQLite                  SQLiteConfig  `yaml:"sqlite"`
	Mirror                  MirrorConfig  `yaml:"mirror"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BKAP_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BKAP_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKAP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKAP_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BKAP_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKAP_SERVER_SHUTDOWN_TIMEOUT"`
}

// StoreConfig selects the primary books storage.
type StoreConfig struct {
	Driver   string `yaml:"driver" envconfig:"BKAP_STORE_DRIVER"`
	FilePath string `yaml:"file_path" envconfig:"BKAP_STORE_FILE_PATH"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKAP_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKAP_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKAP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKAP_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKAP_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKAP_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKAP_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKAP_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKAP_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKAP_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKAP_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKAP_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKAP_BOLTDB_BUCKET_NAME"`
}

type SQLiteConfig struct {
	FilePath string `yaml:"filepath" envconfig:"BKAP_SQLITE_FILE_PATH"`
}

// MirrorConfig enables the replication of every change into boltdb through redis queues.
type MirrorConfig struct {
	Enable bool `yaml:"enable" envconfig:"BKAP_MIRROR_ENABLE"`
}

// NeedsRedis tells if a redis connection must be set up.
func (c *Config) NeedsRedis() bool {
	return c.Store.Driver == RedisDriver || c.Mirror.Enable
}

// NeedsBoltDB tells if a boltdb database must be opened.
func (c *Config) NeedsBoltDB() bool {
	return c.Store.Driver == BoltDBDriver || c.Mirror.Enable
}

// NeedsSQLite tells if a sqlite database must be opened.
func (c *Config) NeedsSQLite() bool {
	return c.Store.Driver == SQLiteDriver
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 10 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if len(config.Store.Driver) == 0 {
		config.Store.Driver = JSONFileDriver
	}

	switch config.Store.Driver {
	case JSONFileDriver, BoltDBDriver, RedisDriver, SQLiteDriver:
	default:
		return fmt.Errorf("unsupported store driver %q", config.Store.Driver)
	}

	if config.Store.Driver == JSONFileDriver && len(config.Store.FilePath) == 0 {
		config.Store.FilePath = defaultStoreFile
	}

	if config.NeedsRedis() && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.NeedsBoltDB() && (len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0) {
		return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
	}

	if config.NeedsSQLite() && len(config.SQLite.FilePath) == 0 {
		return errors.New("make sure to set valid sqlite file path in configuration file")
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The dotenv file is optional.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(defaultConfigFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(defaultEnvFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BKAP`.
	err = LoadConfigEnvs(defaultEnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
