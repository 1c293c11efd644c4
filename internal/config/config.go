// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Duration aceita strings como "10s" ou "24h" nos arquivos TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("duração inválida %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Auth    AuthConfig    `toml:"auth"`
	Market  MarketConfig  `toml:"market"`
	Anbima  AnbimaConfig  `toml:"anbima"`
	Claude  ClaudeConfig  `toml:"claude"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

type ServerConfig struct {
	Port            int      `toml:"port" validate:"min=1,max=65535"`
	Mode            string   `toml:"mode" validate:"oneof=debug release test"`
	MaxUploadMB     int64    `toml:"max_upload_mb" validate:"min=1"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// MaxUploadBytes é o limite por arquivo enviado.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

type LoggingConfig struct {
	Level       string `toml:"level" validate:"oneof=debug info warn error"`
	Development bool   `toml:"development"`
}

type AuthConfig struct {
	Enabled   bool         `toml:"enabled"`
	JWTSecret string       `toml:"jwt_secret"`
	TokenTTL  Duration     `toml:"token_ttl"`
	Users     []UserConfig `toml:"users" validate:"dive"`
}

type UserConfig struct {
	Username     string   `toml:"username" validate:"required"`
	PasswordHash string   `toml:"password_hash" validate:"required"`
	Roles        []string `toml:"roles"`
}

type MarketConfig struct {
	BCBBaseURL     string   `toml:"bcb_base_url" validate:"required,url"`
	BrapiBaseURL   string   `toml:"brapi_base_url" validate:"required,url"`
	BrapiToken     string   `toml:"brapi_token"`
	RequestTimeout Duration `toml:"request_timeout"`
	RateLimit      float64  `toml:"rate_limit" validate:"gte=0"`
	RateTTL        Duration `toml:"rate_ttl"`
	EquityTTL      Duration `toml:"equity_ttl"`
	AnbimaTTL      Duration `toml:"anbima_ttl"`
	WarmSchedule   string   `toml:"warm_schedule"`
}

type AnbimaConfig struct {
	Enabled      bool   `toml:"enabled"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url" validate:"omitempty,url"`
	BaseURL      string `toml:"base_url" validate:"omitempty,url"`
}

type ClaudeConfig struct {
	APIKey     string   `toml:"api_key"`
	Model      string   `toml:"model"`
	MaxTokens  int      `toml:"max_tokens" validate:"gte=0"`
	Timeout    Duration `toml:"timeout"`
	MaxRetries int      `toml:"max_retries" validate:"gte=0"`
}

type GeminiConfig struct {
	APIKey  string   `toml:"api_key"`
	Model   string   `toml:"model"`
	Timeout Duration `toml:"timeout"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            "release",
			MaxUploadMB:     20,
			ReadTimeout:     Duration{30 * time.Second},
			WriteTimeout:    Duration{180 * time.Second},
			ShutdownTimeout: Duration{15 * time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			TokenTTL: Duration{24 * time.Hour},
		},
		Market: MarketConfig{
			BCBBaseURL:     "https://api.bcb.gov.br",
			BrapiBaseURL:   "https://brapi.dev/api",
			RequestTimeout: Duration{10 * time.Second},
			RateLimit:      5,
			RateTTL:        Duration{24 * time.Hour},
			EquityTTL:      Duration{5 * time.Minute},
			AnbimaTTL:      Duration{6 * time.Hour},
		},
		Anbima: AnbimaConfig{
			TokenURL: "https://api.anbima.com.br/oauth/authorize",
			BaseURL:  "https://api.anbima.com.br",
		},
		Claude: ClaudeConfig{
			Model:      "claude-3-5-sonnet-20241022",
			MaxTokens:  4096,
			Timeout:    Duration{120 * time.Second},
			MaxRetries: 2,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			Timeout: Duration{60 * time.Second},
		},
	}
}

// Load monta a configuração a partir dos padrões, dos arquivos TOML
// (arquivos posteriores sobrescrevem os anteriores), do .env e das
// variáveis de ambiente, nessa ordem.
func Load(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler arquivo de configuração %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("falha ao interpretar arquivo de configuração %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("falha ao carregar .env: %w", err)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnvOverrides(config *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("PORT inválida %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if key := firstEnv("CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if model := os.Getenv("CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if key := firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}

	if id := os.Getenv("ANBIMA_CLIENT_ID"); id != "" {
		config.Anbima.ClientID = id
	}
	if secret := os.Getenv("ANBIMA_CLIENT_SECRET"); secret != "" {
		config.Anbima.ClientSecret = secret
	}
	if config.Anbima.ClientID != "" && config.Anbima.ClientSecret != "" {
		config.Anbima.Enabled = true
	}

	if token := os.Getenv("BRAPI_TOKEN"); token != "" {
		config.Market.BrapiToken = token
	}
	if schedule := os.Getenv("MARKET_WARM_SCHEDULE"); schedule != "" {
		config.Market.WarmSchedule = schedule
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Validate checa as tags de validação e as regras que dependem de mais de um campo.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuração inválida: %w", err)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("configuração inválida: auth habilitada sem jwt_secret")
	}
	if c.Anbima.Enabled && (c.Anbima.ClientID == "" || c.Anbima.ClientSecret == "") {
		return errors.New("configuração inválida: anbima habilitada sem client_id/client_secret")
	}
	return nil
}
