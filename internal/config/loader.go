package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/wenwex7981/dynfields/internal/db"
)

// Config holds the full server configuration.
type Config struct {
	Env      string
	LogLevel string
	HTTP     HTTPConfig
	Database db.Config
}

// HTTPConfig holds the HTTP server settings.
type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
}

// Load reads config.yaml from configPath with environment overrides mapped
// under the DYNF prefix (DYNF_DATABASE_HOST, DYNF_HTTP_ADDR, ...). Missing
// files are not an error; defaults plus env apply.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Env:      "local",
		LogLevel: "",
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("DYNF")

	v.BindEnv("env")
	v.BindEnv("log_level")
	v.BindEnv("http.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if v.IsSet("env") {
		cfg.Env = v.GetString("env")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("http.addr") {
		cfg.HTTP.Addr = v.GetString("http.addr")
	}
	if v.IsSet("http.allowed_origins") {
		cfg.HTTP.AllowedOrigins = v.GetStringSlice("http.allowed_origins")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
