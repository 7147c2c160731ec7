package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	BackendLocal    = "local"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int    `mapstructure:"WEBSERVER_PORT" validate:"gte=0,lte=65535"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL" validate:"required,url"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required_if=FileBackend postgres,required_if=PersistLinks true"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// File repository
	FileBackend string `mapstructure:"FILE_BACKEND" validate:"oneof=local postgres s3"`
	UploadDir   string `mapstructure:"UPLOAD_DIR" validate:"required_if=FileBackend local"`

	S3 S3Config `mapstructure:",squash"`

	// Rendering
	PersistLinks     bool   `mapstructure:"PERSIST_LINKS"`
	MessageOverrides string `mapstructure:"MESSAGE_OVERRIDES"`
}

type S3Config struct {
	Endpoint       string `mapstructure:"S3_ENDPOINT" validate:"omitempty,url"`
	PublicEndpoint string `mapstructure:"S3_PUBLIC_ENDPOINT" validate:"omitempty,url"`
	Bucket         string `mapstructure:"S3_BUCKET"`
	AccessKey      string `mapstructure:"S3_ACCESS_KEY"`
	SecretKey      string `mapstructure:"S3_SECRET_KEY"`
	Region         string `mapstructure:"S3_REGION"`
	Prefix         string `mapstructure:"S3_PREFIX"`
}

// LogValue keeps secrets out of the startup log.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("webserver_port", c.WebServerPort),
		slog.String("public_base_url", c.PublicBaseURL),
		slog.Bool("database_dsn_set", c.DatabaseDSN != ""),
		slog.Int("database_retries", c.DatabaseRetries),
		slog.String("file_backend", c.FileBackend),
		slog.String("upload_dir", c.UploadDir),
		slog.String("s3_endpoint", c.S3.Endpoint),
		slog.String("s3_bucket", c.S3.Bucket),
		slog.Bool("persist_links", c.PersistLinks),
	)
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c any) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && (tag == "" || strings.HasPrefix(tag, ",")) {
			bindEnv(val.Field(i).Interface())
			continue
		}

		if tag != "" {
			_ = viper.BindEnv(tag)
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("FILE_BACKEND", BackendLocal)
	viper.SetDefault("UPLOAD_DIR", "./uploads")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("S3_REGION", "eu-central-1")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration", "config", cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.FileBackend == BackendS3 && (cfg.S3.Endpoint == "" || cfg.S3.Bucket == "") {
		return nil, fmt.Errorf("validate config: S3_ENDPOINT and S3_BUCKET are required for the s3 file backend")
	}

	return &cfg, nil
}
