package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"local" validate:"oneof=local dev prod"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Database   Database   `yaml:"database"`
	Auth       Auth       `yaml:"auth"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Database struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME" env-default:"campus_booker"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
}

// Auth configures password hashing and the signed cookies that carry the
// session and flash messages.
type Auth struct {
	Secret       string        `yaml:"secret" env:"AUTH_SECRET" env-required:"true" validate:"min=32"`
	Issuer       string        `yaml:"issuer" env:"AUTH_ISSUER" env-default:"campus-booker"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"AUTH_SESSION_TTL" env-default:"12h"`
	FlashTTL     time.Duration `yaml:"flash_ttl" env-default:"5m"`
	CookieSecure bool          `yaml:"cookie_secure" env:"AUTH_COOKIE_SECURE" env-default:"false"`
	CSRFDisabled bool          `yaml:"csrf_disabled" env:"AUTH_CSRF_DISABLED"`
	PasswordCost int           `yaml:"password_cost" env:"AUTH_PASSWORD_COST" env-default:"10" validate:"min=4,max=31"`
}

// Secrets that ship in tutorials and sample configs.
var placeholderSecrets = []string{
	"supersecretkey",
	"secret",
	"changeme",
	"change-me",
	"change-me-to-a-long-random-string",
}

var ErrPlaceholderSecret = errors.New("auth secret is a publicly known placeholder")

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("config path is not set: use --config or CONFIG_PATH")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}

	return cfg
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	for _, p := range placeholderSecrets {
		if strings.EqualFold(strings.TrimSpace(c.Auth.Secret), p) {
			return ErrPlaceholderSecret
		}
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
