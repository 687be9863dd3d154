package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/storage"
)

// StorageBackend enumerates supported persistence layers.
type StorageBackend string

const (
	// StorageBackendMemory keeps data in-process.
	StorageBackendMemory StorageBackend = "memory"
	// StorageBackendKeyDB persists data to KeyDB/Redis.
	StorageBackendKeyDB StorageBackend = "keydb"
)

// EnvPrefix is prepended to every environment override, e.g. SPI_KEYDB_ADDR.
const EnvPrefix = "SPI"

// Config aggregates runtime configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	KeyDB   KeyDBConfig   `mapstructure:"keydb"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig contains backend selection.
type StorageConfig struct {
	Backend StorageBackend `mapstructure:"backend"`
}

// KeyDBConfig holds connection settings for the KeyDB backend.
type KeyDBConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Store converts the settings into the storage package's form.
func (c KeyDBConfig) Store() storage.Config {
	return storage.Config{
		Addr:     c.Addr,
		Username: c.Username,
		Password: c.Password,
		Database: c.DB,
	}
}

// ArchiveConfig points at the BoltDB file deleted versions are kept in.
// An empty path disables archiving.
type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads spi.yaml from the given directories (the working directory when
// none are passed) and applies SPI_* environment overrides on top.
func Load(paths ...string) (Config, error) {
	v := viper.New()

	v.SetDefault("storage.backend", string(StorageBackendMemory))
	v.SetDefault("keydb.addr", "")
	v.SetDefault("keydb.username", "")
	v.SetDefault("keydb.password", "")
	v.SetDefault("keydb.db", 0)
	v.SetDefault("archive.path", "data/archive.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("spi")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Backend = StorageBackend(strings.ToLower(string(cfg.Storage.Backend)))

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Storage.Backend {
	case StorageBackendMemory, StorageBackendKeyDB:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got: %s", StorageBackendMemory, StorageBackendKeyDB, cfg.Storage.Backend)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got: %s", cfg.Log.Format)
	}
	return nil
}
