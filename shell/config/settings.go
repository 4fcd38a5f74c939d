package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "BARKER"

// Supported values of postgres.driver.
const (
	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

// ErrUnknownDriver is returned for a postgres.driver value other than pgx, sql and sqlx.
var ErrUnknownDriver = errors.New("unknown postgres driver")

// Settings are the runtime settings of barker.
type Settings struct {
	Postgres PostgresSettings `mapstructure:"postgres"`
	HTTP     HTTPSettings     `mapstructure:"http"`
	OTel     OTelSettings     `mapstructure:"otel"`
}

// PostgresSettings apply to every shard connection.
type PostgresSettings struct {
	Driver   string `mapstructure:"driver"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
	Schema   string `mapstructure:"schema"`
}

// HTTPSettings configure the statistics listener.
type HTTPSettings struct {
	Address string `mapstructure:"address"`
}

// OTelSettings configure the OTLP gRPC exporters.
type OTelSettings struct {
	ServiceName    string `mapstructure:"service_name"`
	TraceEndpoint  string `mapstructure:"trace_endpoint"`
	MetricEndpoint string `mapstructure:"metric_endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("postgres.driver", DriverPGX)
	v.SetDefault("postgres.user", "barker")
	v.SetDefault("postgres.password", "barker")
	v.SetDefault("postgres.database", "barker")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 32)
	v.SetDefault("postgres.schema", "barker")
	v.SetDefault("http.address", "127.0.0.1:0")
	v.SetDefault("otel.service_name", "barker")
	v.SetDefault("otel.trace_endpoint", "localhost:4317")
	v.SetDefault("otel.metric_endpoint", "localhost:4317")
}

// LoadSettings reads the settings. configFile is optional; its format follows its extension.
func LoadSettings(configFile string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}

	switch settings.Postgres.Driver {
	case DriverPGX, DriverSQL, DriverSQLX:
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownDriver, settings.Postgres.Driver)
	}

	return settings, nil
}
