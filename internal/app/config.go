package app

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	server "github.com/Mel762/telegramTarorApp/internal/adapters/primary/http"
	alerterAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/alerter"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/gemini"
	kafkaAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/kafka"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/redis"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/storage/s3"
	"github.com/Mel762/telegramTarorApp/internal/adapters/secondary/telegram"
	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
)

type Config struct {
	Postgres *pg.Config                `envconfig:"POSTGRES"`
	Log      *logger.Config            `envconfig:"LOG"`
	Server   *server.Config            `envconfig:"APISERVER"`
	Telegram *telegram.Config          `envconfig:"TELEGRAM"`
	Gemini   *gemini.Config            `envconfig:"GEMINI"`
	Redis    *redisAdapter.Config      `envconfig:"REDIS"`
	S3       *s3.Config                `envconfig:"S3"`
	Kafka    kafkaAdapter.KafkaConfigs `envconfig:"KAFKA"`
	Alerter  *alerterAdapter.Config    `envconfig:"ALERTER"`
	Tarot    TarotConfig               `envconfig:"TAROT"`
}

// TarotConfig параметры продукта
type TarotConfig struct {
	WebAppURL            string        `envconfig:"WEBAPP_URL"`                        // кнопка "Open app" в боте и уведомлениях
	GenerationTimeout    time.Duration `envconfig:"GENERATION_TIMEOUT" default:"15s"`  // одна попытка, без ретраев
	PriceOne             int64         `envconfig:"PRICE_ONE" default:"20"`            // звёзды за кредит на одну карту
	PriceThree           int64         `envconfig:"PRICE_THREE" default:"50"`          // звёзды за кредит на три карты
	PendingPaymentTTL    time.Duration `envconfig:"PENDING_PAYMENT_TTL" default:"24h"` // после него pending -> failed
	NotificationSchedule string        `envconfig:"NOTIFICATION_SCHEDULE" default:"* * * * *"`
	AdminToken           string        `envconfig:"ADMIN_TOKEN"` // пусто = /admin выключен
	Instance             string        `envconfig:"INSTANCE"`    // подпись в алертах
}

// Prices цены кредитов по типу расклада
func (c TarotConfig) Prices() map[domain.SpreadType]int64 {
	return map[domain.SpreadType]int64{
		domain.SpreadOne:   c.PriceOne,
		domain.SpreadThree: c.PriceThree,
	}
}

func (c TarotConfig) Validate() error {
	if c.PriceOne <= 0 || c.PriceThree <= 0 {
		return fmt.Errorf("tarot prices must be positive: one=%d three=%d", c.PriceOne, c.PriceThree)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("tarot generation timeout must be positive: %s", c.GenerationTimeout)
	}
	return nil
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	// Загружаем Kafka конфигурацию вручную (envconfig не умеет определять размер слайса)
	if err := cfg.Kafka.Load(envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load kafka config: %w", err)
	}

	if err := cfg.Gemini.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Tarot.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
