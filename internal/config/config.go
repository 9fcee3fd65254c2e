package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/iyann1255/daftaren/lib/validate"
)

type Telegram struct {
	Token        string  `yaml:"token" env:"BOT_TOKEN" env-description:"Telegram bot token"`
	AdminIds     []int64 `yaml:"admin_ids" env:"ADMIN_IDS" env-separator:"," env-description:"numeric ids allowed to approve payments"`
	ReviewChatId int64   `yaml:"review_chat_id" env:"REVIEW_CHAT_ID" env-description:"group where proofs are posted"`
}

type Bank struct {
	Name    string `yaml:"name"`
	Account string `yaml:"account"`
	Holder  string `yaml:"holder"`
}

// Payment is the static text of the payment instructions.
type Payment struct {
	Title     string `yaml:"title" env:"PAYMENT_TITLE" env-default:"PAYMENT TURNAMEN"`
	Amount    string `yaml:"amount" env:"PAYMENT_AMOUNT"`
	QrisImage string `yaml:"qris_image" env:"QRIS_IMAGE_PATH" env-default:"qris.png"`
	Dana      string `yaml:"dana" env:"PAYMENT_DANA"`
	Banks     []Bank `yaml:"banks"`
	Note      string `yaml:"note" env:"PAYMENT_NOTE"`
}

type Registration struct {
	TicketPrefix string `yaml:"ticket_prefix" env:"TICKET_PREFIX" env-default:"UNO-"`
	Country      string `yaml:"country" env:"PHONE_COUNTRY" env-default:"ID"`
	LocalPrefix  string `yaml:"local_prefix" env:"PHONE_LOCAL_PREFIX" env-default:"08"`
	MinDigits    int    `yaml:"min_digits" env:"PHONE_MIN_DIGITS" env-default:"10"`
}

type Mongo struct {
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER"`
	Password string `yaml:"password" env:"MONGO_PASSWORD"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"daftaren"`
	Document string `yaml:"document" env:"MONGO_DOCUMENT" env-default:"registrations"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file" validate:"oneof=file mongo"`
	Path   string `yaml:"path" env:"DATA_FILE" env-default:"registrations.json"`
	Mongo  Mongo  `yaml:"mongo"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Session struct {
	Driver string        `yaml:"driver" env:"SESSION_DRIVER" env-default:"memory" validate:"oneof=memory redis"`
	TTL    time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"30m"`
	Redis  Redis         `yaml:"redis"`
}

type Listen struct {
	Enabled bool   `yaml:"enabled" env:"HTTP_ENABLED" env-default:"false"`
	BindIp  string `yaml:"bind_ip" env:"HTTP_BIND_IP" env-default:"0.0.0.0"`
	Port    string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Api struct {
	Token string `yaml:"token" env:"API_TOKEN"`
}

type Config struct {
	Env          string       `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	Telegram     Telegram     `yaml:"telegram"`
	Payment      Payment      `yaml:"payment"`
	Registration Registration `yaml:"registration"`
	Storage      Storage      `yaml:"storage"`
	Session      Session      `yaml:"session"`
	Listen       Listen       `yaml:"listen"`
	Api          Api          `yaml:"api"`
}

// Load reads .env, then the YAML file when it exists, then the environment.
// Environment variables override file values.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var conf Config
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, &conf)
	} else if errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(&conf)
	} else {
		err = statErr
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(&conf, nil)
		return Config{}, fmt.Errorf("config: %s; %s", err, desc)
	}

	if err = validate.Struct(&conf); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

// RequireBot checks the settings without which the bot cannot start.
func (c Config) RequireBot() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("config: telegram token (BOT_TOKEN) is empty")
	}
	return nil
}
