package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/arzzra/asterisk_manager/pkg/manager"
)

// fileConfig - ключи config.toml монитора.
type fileConfig struct {
	User             string   `toml:"user"`
	Password         string   `toml:"password"`
	Host             string   `toml:"host"`
	Port             int      `toml:"port"`
	Events           string   `toml:"events"`
	Debug            bool     `toml:"debug"`
	Inbound          []string `toml:"inbound"`
	Outbound         []string `toml:"outbound"`
	Internal         []string `toml:"internal"`
	ConnectTimeoutMS int      `toml:"connect_timeout_ms"`
	MetricsAddr      string   `toml:"metrics_addr"`
}

// loadFileConfig читает TOML конфигурацию поверх значений по умолчанию.
// Возвращает конфигурацию сессии и адрес экспорта метрик.
func loadFileConfig(path string) (manager.Config, string, error) {
	cfg := manager.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return manager.Config{}, "", fmt.Errorf("load ami config: %w", err)
	}

	if meta.IsDefined("user") {
		cfg.User = raw.User
	}
	if meta.IsDefined("password") {
		cfg.Password = raw.Password
	}
	if meta.IsDefined("host") {
		cfg.Host = raw.Host
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("events") {
		cfg.Events = raw.Events
	}
	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}
	if meta.IsDefined("inbound") {
		cfg.Inbound = raw.Inbound
	}
	if meta.IsDefined("outbound") {
		cfg.Outbound = raw.Outbound
	}
	if meta.IsDefined("internal") {
		cfg.Internal = raw.Internal
	}
	if meta.IsDefined("connect_timeout_ms") {
		cfg.ConnectTimeout = time.Duration(raw.ConnectTimeoutMS) * time.Millisecond
	}
	return cfg, raw.MetricsAddr, nil
}

// loadEnvConfig собирает конфигурацию из переменных окружения,
// подхватывая .env файл, если он есть.
func loadEnvConfig() (manager.Config, error) {
	_ = godotenv.Load()

	cfg := manager.DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return manager.Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}
