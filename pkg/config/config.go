package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Logging     LoggingConfig     `mapstructure:"logging" validate:"required"`
	Store       StoreConfig       `mapstructure:"store" validate:"required"`
	Entitlement EntitlementConfig `mapstructure:"entitlement" validate:"required"`
	Render      RenderConfig      `mapstructure:"render" validate:"required"`
	S3          S3Config          `mapstructure:"s3"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects the backend holding the plan flag and the template
// preference.
type StoreConfig struct {
	Type          string `mapstructure:"type" validate:"required,oneof=memory file redis postgres"`
	FilePath      string `mapstructure:"file_path" validate:"required_if=Type file"`
	RedisURL      string `mapstructure:"redis_url" validate:"required_if=Type redis"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
	PostgresDSN   string `mapstructure:"postgres_dsn" validate:"required_if=Type postgres"`
	PostgresTable string `mapstructure:"postgres_table"`
}

type EntitlementConfig struct {
	PurchaseURL   string `mapstructure:"purchase_url" validate:"required,url"`
	DebugOverride bool   `mapstructure:"debug_override"`
}

type RenderConfig struct {
	QRSize      int     `mapstructure:"qr_size" validate:"gt=0"`
	ExportScale float64 `mapstructure:"export_scale" validate:"gt=0"`
}

type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region" validate:"required_if=Enabled true"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Endpoint  string `mapstructure:"endpoint"`
}

const DefaultPurchaseURL = "https://snapvoice.lemonsqueezy.com/buy/554b2bca-a60c-49bf-ba50-348fef404439"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("store.type", "file")
	v.SetDefault("store.file_path", "invoice-studio.yaml")
	v.SetDefault("store.redis_prefix", "invoice-studio:")
	v.SetDefault("store.postgres_table", "entitlement_kv")
	v.SetDefault("entitlement.purchase_url", DefaultPurchaseURL)
	v.SetDefault("entitlement.debug_override", false)
	v.SetDefault("render.qr_size", 110)
	v.SetDefault("render.export_scale", 2)
	v.SetDefault("s3.enabled", false)
}

// NewConfig reads config.yaml (if any) and INVOICE_STUDIO_* environment
// variables on top of the defaults. configFile overrides the search paths.
func NewConfig(configFile string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/invoice-studio")
	}

	v.SetEnvPrefix("INVOICE_STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a configuration for tests and local scripts: an
// in-memory store and debug logging.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Server:  ServerConfig{Address: ":8080", ReadTimeout: 15 * time.Second, WriteTimeout: 30 * time.Second},
		Logging: LoggingConfig{Level: "debug"},
		Store: StoreConfig{
			Type:          "memory",
			RedisPrefix:   "invoice-studio:",
			PostgresTable: "entitlement_kv",
		},
		Entitlement: EntitlementConfig{PurchaseURL: DefaultPurchaseURL, DebugOverride: true},
		Render:      RenderConfig{QRSize: 110, ExportScale: 2},
	}
}
