// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env-default:"local"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	Telegram        `yaml:"telegram"`
	Auth            `yaml:"auth"`
	Issuance        `yaml:"issuance"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// Telegram структура для доступа к Bot API: токен бота, базовый адрес API
// и канал, членство в котором проверяется перед выдачей кода.
type Telegram struct {
	BotToken  string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	APIURL    string `yaml:"api_url" env-default:"https://api.telegram.org"`
	ChannelID string `yaml:"channel_id"`
}

// Auth структура с настройками аутентификации: идентификатор
// администратора и срок жизни сессии.
type Auth struct {
	AdminTelegramID string        `yaml:"admin_telegram_id" env:"ADMIN_TELEGRAM_ID"`
	SessionTTL      time.Duration `yaml:"session_ttl" env-default:"24h"`
}

// Issuance структура с параметрами выдачи конфигураций.
type Issuance struct {
	DailyLimit int    `yaml:"daily_limit" env-default:"3"`
	DefaultDNS string `yaml:"default_dns" env-default:"1.1.1.1"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH, при ошибке завершает процесс.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
