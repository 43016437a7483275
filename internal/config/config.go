package config

import (
	"os"
	"strings"
	"time"

	"github.com/nconklindev/freightmap/internal/mapping"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "FREIGHTMAP"

// Keys shared by flags, env vars and the config file.
const (
	KeyTemplate    = "template"
	KeyDirection   = "direction"
	KeyLogLevel    = "log-level"
	KeyLogFile     = "log-file"
	KeyListen      = "listen"
	KeyMaxUploadMB = "max-upload-mb"
	KeyUploadTTL   = "upload-ttl"
	KeyGinMode     = "gin-mode"
	KeyMaxJobs     = "max-jobs"
)

type Config struct {
	// Template is the template workbook path; empty means the embedded one.
	Template  string
	Direction mapping.Direction
	LogLevel  string
	LogFile   string
	Server    ServerConfig
}

type ServerConfig struct {
	Listen      string
	MaxUploadMB int64
	UploadTTL   time.Duration
	GinMode     string
	// MaxJobs caps conversions running at once.
	MaxJobs int64
}

// New returns a viper instance with defaults and FREIGHTMAP_* env binding.
// Variables from a .env file in the working directory are loaded first;
// envFile overrides that location and must exist when given.
func New(envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "loading env file %s", envFile)
		}
	} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "loading .env")
	}

	v := viper.New()
	v.SetDefault(KeyTemplate, "")
	v.SetDefault(KeyDirection, mapping.DirectionTarget.String())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyListen, ":8501")
	v.SetDefault(KeyMaxUploadMB, 200)
	v.SetDefault(KeyUploadTTL, "30m")
	v.SetDefault(KeyGinMode, "release")
	v.SetDefault(KeyMaxJobs, 4)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v, nil
}

// ReadFile merges a YAML, TOML or JSON config file into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	return nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	dir, err := mapping.ParseDirection(v.GetString(KeyDirection))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Template:  v.GetString(KeyTemplate),
		Direction: dir,
		LogLevel:  v.GetString(KeyLogLevel),
		LogFile:   v.GetString(KeyLogFile),
		Server: ServerConfig{
			Listen:      v.GetString(KeyListen),
			MaxUploadMB: v.GetInt64(KeyMaxUploadMB),
			UploadTTL:   v.GetDuration(KeyUploadTTL),
			GinMode:     v.GetString(KeyGinMode),
			MaxJobs:     v.GetInt64(KeyMaxJobs),
		},
	}

	if cfg.Server.MaxUploadMB <= 0 {
		return nil, errors.Errorf("%s must be positive, got %d", KeyMaxUploadMB, cfg.Server.MaxUploadMB)
	}
	if cfg.Server.MaxJobs <= 0 {
		return nil, errors.Errorf("%s must be positive, got %d", KeyMaxJobs, cfg.Server.MaxJobs)
	}
	if cfg.Server.UploadTTL <= 0 {
		return nil, errors.Errorf("%s must be positive, got %s", KeyUploadTTL, cfg.Server.UploadTTL)
	}
	return cfg, nil
}
