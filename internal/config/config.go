package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	History  HistoryConfig  `mapstructure:"history"`
	Modbus   ModbusConfig   `mapstructure:"modbus"`
	Profiles ProfilesConfig `mapstructure:"device_profiles"`
	Devices  []DeviceConfig `mapstructure:"devices"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// Sample-Historie ist optional; ohne Datenbank läuft das Gateway nur mit
// Live-Stream.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ModbusConfig struct {
	DefaultTimeout      time.Duration `mapstructure:"default_timeout"`
	DefaultPollInterval time.Duration `mapstructure:"default_poll_interval"`
}

type ProfilesConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

// DeviceConfig deklariert eine Geräteinstanz: Profilname + Verbindungsdaten.
type DeviceConfig struct {
	Name    string `mapstructure:"name"`
	Profile string `mapstructure:"profile"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	UnitID  int    `mapstructure:"unit_id"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// Defaults setzen
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("history.enabled", false)
	viper.SetDefault("modbus.default_timeout", "1s")
	viper.SetDefault("modbus.default_poll_interval", "100ms")
	viper.SetDefault("device_profiles.search_paths", []string{"profiles"})

	// Environment Variables automatisch binden (Viper Feature)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("MBC") // Environment Variables mit Prefix MBC_

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}
