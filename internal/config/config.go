// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Границы окна действия токена. Окно короче минуты делает токен
// непригодным для печати/показа QR-кода, длиннее часа — противоречит
// назначению одноразового короткоживущего токена.
const (
	MinValidityWindow = time.Minute
	MaxValidityWindow = time.Hour
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Ops      OpsConfig     `yaml:"ops"`
	Token    TokenConfig   `yaml:"token"`
	DB       DBConfig      `yaml:"db"`
	Audit    AuditConfig   `yaml:"audit"`
	Authn    AuthnConfig   `yaml:"authn"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"5s"`
}

// HTTPConfig — сетевые настройки API-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50080"`
}

// OpsConfig — сетевые настройки служебного сервера (healthz/metrics).
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"50081"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// TokenConfig содержит параметры выпуска QR-токенов.
//
// Политика ключа подписи (минимальная длина, запрет значений-заглушек)
// применяется в token.NewSigner при старте процесса.
type TokenConfig struct {
	SigningKey     string        `yaml:"signing_key" env:"TOKEN_SIGNING_KEY" env-required:"true"`
	ValidityWindow time.Duration `yaml:"validity_window" env:"TOKEN_VALIDITY_WINDOW" env-default:"5m"`
	Retention      time.Duration `yaml:"retention" env:"TOKEN_RETENTION" env-default:"720h"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// AuditConfig — настройки хранилища журнала аудита.
type AuditConfig struct {
	DatabaseURL string        `yaml:"db_url" env:"AUDIT_DB_URL" env-required:"true"`
	Retention   time.Duration `yaml:"retention" env:"AUDIT_RETENTION" env-default:"4320h"`
}

// AuthnConfig — параметры проверки access-токенов вызывающих сторон.
// Токены выпускает auth-сервис платформы; здесь они только проверяются.
type AuthnConfig struct {
	JWTSecret string   `yaml:"jwt_secret" env:"AUTHN_JWT_SECRET" env-required:"true"`
	Issuer    string   `yaml:"issuer"   env:"AUTHN_ISSUER" env-default:"auth-service"`
	Audience  []string `yaml:"audience" env:"AUTHN_AUDIENCE" env-default:"qrtoken-service"`
}

// Validate проверяет согласованность загруженной конфигурации.
// Вызывается из Load: сервис с некорректными параметрами не стартует.
func (c *Config) Validate() error {
	if c.Token.ValidityWindow < MinValidityWindow || c.Token.ValidityWindow > MaxValidityWindow {
		return fmt.Errorf("token.validity_window %s is out of range [%s, %s]",
			c.Token.ValidityWindow, MinValidityWindow, MaxValidityWindow)
	}

	if c.Token.Retention < c.Token.ValidityWindow {
		return fmt.Errorf("token.retention %s is shorter than token.validity_window %s",
			c.Token.Retention, c.Token.ValidityWindow)
	}

	if c.Audit.Retention <= 0 {
		return fmt.Errorf("audit.retention must be positive, got %s", c.Audit.Retention)
	}

	if c.Timeouts.Service <= 0 {
		return fmt.Errorf("timeouts.service must be positive, got %s", c.Timeouts.Service)
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV —
// и валидирует результат.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// load читает конфигурацию без валидации.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		c, err := tryRead(path)
		if err != nil {
			return nil, err
		}

		return c, nil
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		c, err := tryRead(envPath)

		if err != nil {
			return nil, err
		}

		return c, nil
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
