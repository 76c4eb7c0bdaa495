package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string
	DBDSN       string
	JWTSecret   string

	// TelegramToken необязателен: без него уведомления хранятся только во внутреннем inbox
	TelegramToken string

	Timezone *time.Location

	ReminderInterval     time.Duration
	ReminderStartupDelay time.Duration
	SlotGenerationCron   string
	SlotGenerationWeeks  int

	MeetingBaseURL string
	// PublicURL адрес веб-клиента для ссылок в Telegram сообщениях
	PublicURL string

	NotifyWorkers   int
	NotifyQueueSize int
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:        getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DBDSN:              os.Getenv("DB_DSN"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		SlotGenerationCron: getEnv("SLOT_GENERATION_CRON", "0 3 * * *"),
		MeetingBaseURL:     getEnv("MEETING_BASE_URL", "https://meet.example.edu"),
		PublicURL:          os.Getenv("PUBLIC_URL"),
	}

	var err error

	cfg.Timezone, err = time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("parse TIMEZONE: %w", err)
	}

	if cfg.ReminderInterval, err = getDuration("REMINDER_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderStartupDelay, err = getDuration("REMINDER_STARTUP_DELAY", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SlotGenerationWeeks, err = getInt("SLOT_GENERATION_WEEKS", 4); err != nil {
		return nil, err
	}
	if cfg.NotifyWorkers, err = getInt("NOTIFY_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.NotifyQueueSize, err = getInt("NOTIFY_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if c.SlotGenerationWeeks <= 0 {
		return fmt.Errorf("SLOT_GENERATION_WEEKS must be positive")
	}
	if c.NotifyWorkers <= 0 || c.NotifyQueueSize <= 0 {
		return fmt.Errorf("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
