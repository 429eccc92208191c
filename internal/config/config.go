// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env          string          `yaml:"env" env:"ENV" env-default:"local"`
	FrontendURL  string          `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
	Storage      Storage         `yaml:"storage"`
	Redis        RedisConnection `yaml:"redis"`
	HTTPServer   HTTPServer      `yaml:"http_server"`
	JWTToken     JWTToken        `yaml:"jwt"`
	Razorpay     Razorpay        `yaml:"razorpay"`
	Subscription Subscription    `yaml:"subscription"`
	Media        Media           `yaml:"media"`
	SMTP         SMTP            `yaml:"smtp"`
	RabbitMQ     RabbitMQ        `yaml:"rabbitmq"`
	Stats        Stats           `yaml:"stats"`
	GRPC         GRPC            `yaml:"grpc"`
}

// Storage настройки хранилища. Driver: postgres или memory.
type Storage struct {
	Driver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	ConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath   string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Address       string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout       time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SecureCookies bool          `yaml:"secure_cookies" env:"HTTP_SECURE_COOKIES" env-default:"true"`
	RateLimit     float64       `yaml:"rate_limit" env:"HTTP_RATE_LIMIT" env-default:"5"`
	RateBurst     int           `yaml:"rate_burst" env:"HTTP_RATE_BURST" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой Address отключает кеш.
type RedisConnection struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"360h"`
}

// Razorpay настройки платёжного шлюза.
type Razorpay struct {
	KeyID      string `yaml:"key_id" env:"RAZORPAY_API_KEY"`
	KeySecret  string `yaml:"key_secret" env:"RAZORPAY_API_SECRET"`
	PlanID     string `yaml:"plan_id" env:"PLAN_ID"`
	APIURL     string `yaml:"api_url" env:"RAZORPAY_API_URL" env-default:"https://api.razorpay.com/v1"`
	TotalCount int    `yaml:"total_count" env:"RAZORPAY_TOTAL_COUNT" env-default:"12"`
}

// Subscription политика возврата средств при отмене подписки.
type Subscription struct {
	RefundEnabled bool          `yaml:"refund_enabled" env:"REFUND_ENABLED" env-default:"true"`
	RefundWindow  time.Duration `yaml:"refund_window" env:"REFUND_WINDOW" env-default:"168h"`
}

// Media настройки S3-совместимого хранилища медиафайлов.
type Media struct {
	Endpoint     string `yaml:"endpoint" env:"MEDIA_ENDPOINT"`
	Region       string `yaml:"region" env:"MEDIA_REGION" env-default:"us-east-1"`
	Bucket       string `yaml:"bucket" env:"MEDIA_BUCKET"`
	AccessKey    string `yaml:"access_key" env:"MEDIA_ACCESS_KEY"`
	SecretKey    string `yaml:"secret_key" env:"MEDIA_SECRET_KEY"`
	UsePathStyle bool   `yaml:"use_path_style" env:"MEDIA_USE_PATH_STYLE" env-default:"false"`
	PublicURL    string `yaml:"public_url" env:"MEDIA_PUBLIC_URL"`
}

// SMTP настройки почтового транспорта.
type SMTP struct {
	Host      string `yaml:"host" env:"SMTP_HOST"`
	Port      string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User      string `yaml:"user" env:"SMTP_USER"`
	Password  string `yaml:"password" env:"SMTP_PASSWORD"`
	AdminMail string `yaml:"admin_mail" env:"MY_MAIL"`
}

// RabbitMQ настройки брокера для событий статистики. Пустой URL включает in-process шину.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
	Exchange   string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"course-seller"`
	Queue      string        `yaml:"queue" env:"RABBITMQ_QUEUE" env-default:"stats.refresh"`
	RoutingKey string        `yaml:"routing_key" env:"RABBITMQ_ROUTING_KEY" env-default:"store.changed"`
}

// Stats настройки агрегатора статистики.
type Stats struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"STATS_REFRESH_INTERVAL" env-default:"1h"`
	BufferSize      int           `yaml:"buffer_size" env:"STATS_BUFFER_SIZE" env-default:"64"`
}

// GRPC адрес gRPC-сервиса проверки готовности. Пустой адрес отключает сервис.
type GRPC struct {
	HealthAddress string `yaml:"health_address" env:"GRPC_HEALTH_ADDRESS"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, переменные окружения перекрывают значения файла.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"FrontendURL: %s\n"+
			"Storage: %s\n"+
			"Redis: %s (db %d)\n"+
			"HTTPServer: %s timeout=%s idle=%s\n"+
			"JWT TTL: %s\n"+
			"Razorpay key: %s plan: %s\n"+
			"Refund: enabled=%t window=%s\n"+
			"Media bucket: %s\n"+
			"RabbitMQ: %t\n",
		c.Env,
		c.FrontendURL,
		c.Storage.Driver,
		c.Redis.Address, c.Redis.DB,
		c.HTTPServer.Address, c.HTTPServer.Timeout, c.HTTPServer.IdleTimeout,
		c.JWTToken.TokenTTL,
		c.Razorpay.KeyID, c.Razorpay.PlanID,
		c.Subscription.RefundEnabled, c.Subscription.RefundWindow,
		c.Media.Bucket,
		c.RabbitMQ.URL != "",
	)
}
