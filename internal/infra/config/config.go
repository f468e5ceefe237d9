package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/London"`
	Port   int    `envconfig:"PORT" default:"8080"`

	MetricsPort int `envconfig:"METRICS_PORT" default:"9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Session struct {
		Secret string        `envconfig:"SESSION_SECRET"`
		TTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	} `envconfig:""`

	Admin struct {
		Token string `envconfig:"ADMIN_TOKEN"`
	} `envconfig:""`

	Geo struct {
		BaseURL   string        `envconfig:"GEO_BASE_URL"`
		UserAgent string        `envconfig:"GEO_USER_AGENT" default:"terrace/1.0"`
		Timeout   time.Duration `envconfig:"GEO_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Queues struct {
		Grade string `envconfig:"GRADE_QUEUE_KEY" default:"grade_jobs"`
		// При заданном AMQP_URL очередь оценки живёт в RabbitMQ вместо Redis.
		AMQPURL     string `envconfig:"AMQP_URL"`
		AMQPMgmtURL string `envconfig:"AMQP_MGMT_URL"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
