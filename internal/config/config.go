// Package config loads the settings of the mockup service from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gogpu/mockup"
	"github.com/gogpu/mockup/internal/preview"
)

// Config holds every setting of the mockup service.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`
	CORSOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	OutputFormat    string `mapstructure:"OUTPUT_FORMAT"`
	JPEGQuality     int    `mapstructure:"JPEG_QUALITY"`
	MatteColor      string `mapstructure:"MATTE_COLOR"`
	OpacityMode     string `mapstructure:"OPACITY_MODE"`
	DecodeWorkers   int    `mapstructure:"DECODE_WORKERS"`
	MaxSourcePixels int    `mapstructure:"MAX_SOURCE_PIXELS"`
	MaxUploadBytes  int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	PreviewTimeoutSeconds int    `mapstructure:"PREVIEW_TIMEOUT_SECONDS"`
	PreviewMaxBytes       int64  `mapstructure:"PREVIEW_MAX_BYTES"`
	PreviewAllowedHosts   string `mapstructure:"PREVIEW_ALLOWED_HOSTS"`
	PreviewAllowPrivate   bool   `mapstructure:"PREVIEW_ALLOW_PRIVATE"`

	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	SupabaseURL        string `mapstructure:"SUPABASE_URL"`
	SupabaseServiceKey string `mapstructure:"SUPABASE_SERVICE_KEY"`
	SupabaseBucket     string `mapstructure:"SUPABASE_BUCKET"`
	JWTSecret          string `mapstructure:"SUPABASE_JWT_SECRET"`
	JWTAudience        string `mapstructure:"SUPABASE_JWT_AUDIENCE"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`
}

var keys = []string{
	"SERVER_PORT", "LOG_LEVEL", "LOG_FORMAT", "CORS_ALLOWED_ORIGINS",
	"OUTPUT_FORMAT", "JPEG_QUALITY", "MATTE_COLOR", "OPACITY_MODE",
	"DECODE_WORKERS", "MAX_SOURCE_PIXELS", "MAX_UPLOAD_BYTES",
	"PREVIEW_TIMEOUT_SECONDS", "PREVIEW_MAX_BYTES", "PREVIEW_ALLOWED_HOSTS",
	"PREVIEW_ALLOW_PRIVATE",
	"DATABASE_URL", "SUPABASE_URL", "SUPABASE_SERVICE_KEY", "SUPABASE_BUCKET",
	"SUPABASE_JWT_SECRET", "SUPABASE_JWT_AUDIENCE",
	"RABBITMQ_URL", "EVENTS_EXCHANGE",
}

// LoadConfig reads configuration from the environment, falling back to a
// .env file in path and then to defaults. Settings the compositor cannot
// use are rejected here rather than on the first request.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("OUTPUT_FORMAT", "jpeg")
	viper.SetDefault("JPEG_QUALITY", mockup.DefaultQuality)
	viper.SetDefault("MATTE_COLOR", "#ffffff")
	viper.SetDefault("OPACITY_MODE", "apply")
	viper.SetDefault("DECODE_WORKERS", mockup.DefaultDecodeWorkers)
	viper.SetDefault("MAX_SOURCE_PIXELS", mockup.DefaultMaxSourcePixels)
	viper.SetDefault("MAX_UPLOAD_BYTES", 64<<20)
	viper.SetDefault("PREVIEW_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PREVIEW_MAX_BYTES", 32<<20)
	viper.SetDefault("PREVIEW_ALLOW_PRIVATE", false)
	viper.SetDefault("SUPABASE_BUCKET", "mockups")
	viper.SetDefault("SUPABASE_JWT_AUDIENCE", "authenticated")
	viper.SetDefault("EVENTS_EXCHANGE", "mockup_events")

	for _, key := range keys {
		_ = viper.BindEnv(key)
	}
	_ = viper.BindEnv("PORT")

	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("config: failed to read config file, using environment values", slog.Any("error", err))
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)

	if _, err = config.CompositorOptions(); err != nil {
		return
	}
	if _, err = config.SlogLevel(); err != nil {
		return
	}
	return config, nil
}

// CompositorOptions translates the rendering settings into compositor
// options. Preview fetching is wired separately by the caller.
func (c Config) CompositorOptions() ([]mockup.Option, error) {
	format, err := mockup.ParseFormat(c.OutputFormat)
	if err != nil {
		return nil, fmt.Errorf("config: OUTPUT_FORMAT: %w", err)
	}
	mode, err := mockup.ParseOpacityMode(c.OpacityMode)
	if err != nil {
		return nil, fmt.Errorf("config: OPACITY_MODE: %w", err)
	}
	matte, err := mockup.ParseHex(c.MatteColor)
	if err != nil {
		return nil, fmt.Errorf("config: MATTE_COLOR: %w", err)
	}

	opts := []mockup.Option{
		mockup.WithFormat(format),
		mockup.WithOpacityMode(mode),
		mockup.WithMatte(matte.Color()),
		mockup.WithMaxSourcePixels(c.MaxSourcePixels),
	}
	if c.JPEGQuality > 0 {
		opts = append(opts, mockup.WithQuality(c.JPEGQuality))
	}
	if c.DecodeWorkers > 0 {
		opts = append(opts, mockup.WithDecodeWorkers(c.DecodeWorkers))
	}
	return opts, nil
}

// SlogLevel parses LOG_LEVEL.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return level, nil
}

// PreviewTimeout bounds each preview fetch.
func (c Config) PreviewTimeout() time.Duration {
	return time.Duration(c.PreviewTimeoutSeconds) * time.Second
}

// AllowedHosts splits PREVIEW_ALLOWED_HOSTS. When it is unset, previews
// may only come from the Supabase project host. An empty result allows any
// host.
func (c Config) AllowedHosts() []string {
	if hosts := splitList(c.PreviewAllowedHosts); len(hosts) > 0 {
		return hosts
	}
	if u, err := url.Parse(strings.TrimSpace(c.SupabaseURL)); err == nil && u.Hostname() != "" {
		return []string{u.Hostname()}
	}
	return nil
}

// PreviewOptions configures the preview fetcher.
func (c Config) PreviewOptions() preview.Options {
	return preview.Options{
		Timeout:              c.PreviewTimeout(),
		MaxBytes:             c.PreviewMaxBytes,
		AllowedHosts:         c.AllowedHosts(),
		AllowPrivateNetworks: c.PreviewAllowPrivate,
	}
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
