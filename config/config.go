package config

import (
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout"`
}

// Address joins host and port into the listen address.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ExtractionConfig holds the local credential defaults and the pacing between
// fallback attempts. Token is a secret and is expected to come from the
// environment (EXTRACTION_TOKEN) rather than a committed file.
type ExtractionConfig struct {
	CookieFile string `mapstructure:"cookie_file"`
	Token      string `mapstructure:"token"`
	UserAgent  string `mapstructure:"user_agent"`
	JitterMin  string `mapstructure:"jitter_min"`
	JitterMax  string `mapstructure:"jitter_max"`
}

// Jitter returns the parsed delay bounds. Call after Validate.
func (e ExtractionConfig) Jitter() (time.Duration, time.Duration) {
	lo, _ := time.ParseDuration(e.JitterMin)
	hi, _ := time.ParseDuration(e.JitterMax)
	return lo, hi
}

type YTDLPConfig struct {
	Executable string `mapstructure:"executable"`
	Format     string `mapstructure:"format"`
}

type NativeConfig struct {
	TLSFingerprint bool   `mapstructure:"tls_fingerprint"`
	Timeout        string `mapstructure:"timeout"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// StrategyConfig is one entry of the ordered fallback list. An empty list in
// the configuration keeps the built-in defaults.
type StrategyConfig struct {
	Name       string            `mapstructure:"name"`
	Engine     string            `mapstructure:"engine"`
	Clients    []string          `mapstructure:"clients"`
	Skip       []string          `mapstructure:"skip"`
	UseCookies bool              `mapstructure:"use_cookies"`
	UseToken   bool              `mapstructure:"use_token"`
	Headers    map[string]string `mapstructure:"headers"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	YTDLP       YTDLPConfig       `mapstructure:"ytdlp"`
	Native      NativeConfig      `mapstructure:"native"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Strategies  []StrategyConfig  `mapstructure:"strategies"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("extraction.cookie_file", "cookies.txt")
	v.SetDefault("extraction.token", "")
	v.SetDefault("extraction.user_agent", "")
	v.SetDefault("extraction.jitter_min", "500ms")
	v.SetDefault("extraction.jitter_max", "2s")
	v.SetDefault("ytdlp.executable", "yt-dlp")
	v.SetDefault("ytdlp.format", "bestaudio/best")
	v.SetDefault("native.tls_fingerprint", true)
	v.SetDefault("native.timeout", "30s")
	v.SetDefault("health_check.interval", "30s")
	v.SetDefault("metrics.buffer_size", 1000)
}

// Load reads the configuration. When path is empty, config.yaml is looked up
// in ./config and the working directory; a missing file is not an error.
// Environment variables override file values (server.port -> SERVER_PORT),
// and PORT is honoured for the listen port.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Host, is.Host),
					validation.Field(&sc.Port,
						validation.Required,
						validation.Min(1),
						validation.Max(65535),
					),
					validation.Field(&sc.ReadTimeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&sc.WriteTimeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&sc.IdleTimeout, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Extraction,
			validation.By(func(value interface{}) error {
				ec, ok := value.(ExtractionConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an ExtractionConfig")
				}
				if err := validation.ValidateStruct(&ec,
					validation.Field(&ec.JitterMin, validation.Required, validation.By(validateDuration)),
					validation.Field(&ec.JitterMax, validation.Required, validation.By(validateDuration)),
				); err != nil {
					return err
				}
				if lo, hi := ec.Jitter(); lo < 0 || hi < lo {
					return validation.NewError("validation_invalid_jitter", "jitter_max must not be lower than jitter_min")
				}
				return nil
			}),
		),
		validation.Field(&c.YTDLP,
			validation.Required,
			validation.By(func(value interface{}) error {
				yc, ok := value.(YTDLPConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a YTDLPConfig")
				}
				return validation.ValidateStruct(&yc,
					validation.Field(&yc.Executable, validation.Required),
					validation.Field(&yc.Format, validation.Required),
				)
			}),
		),
		validation.Field(&c.Native,
			validation.By(func(value interface{}) error {
				nc, ok := value.(NativeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a NativeConfig")
				}
				return validation.ValidateStruct(&nc,
					validation.Field(&nc.Timeout, validation.Required, validation.By(validatePositiveDuration)),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.Strategies,
			validation.Each(validation.By(validateStrategyConfig)),
		),
	)
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validatePositiveDuration(value interface{}) error {
	if err := validateDuration(value); err != nil {
		return err
	}

	if d, _ := time.ParseDuration(value.(string)); d <= 0 {
		return validation.NewError("validation_non_positive_duration", "must be greater than zero")
	}

	return nil
}

func validateStrategyConfig(value interface{}) error {
	sc, ok := value.(StrategyConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a StrategyConfig")
	}

	return validation.ValidateStruct(&sc,
		validation.Field(&sc.Name, validation.Required),
		validation.Field(&sc.Engine, validation.Required),
		validation.Field(&sc.Clients, validation.Each(validation.Required)),
	)
}

// Duration parses a field that already passed validation.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
