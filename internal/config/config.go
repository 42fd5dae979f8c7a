package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultWelcome = "Hi! I'm your step-by-step AI tutor. Ask anything and I'll explain it clearly.\n\n" +
	"¡Hola! Soy tu tutor de IA paso a paso. Pregunta lo que quieras y te lo explicaré claramente.\n\n" +
	"🌍 I automatically respond in your language! / ¡Respondo automáticamente en tu idioma!"

type RuntimeConfig struct {
	Dev bool
}

type EndpointsConfig struct {
	ChatURL      string `yaml:"chat_url"`       // full URL receiving {"prompt": ...}
	SolveBaseURL string `yaml:"solve_base_url"` // "/solve" is appended
}

// SolveURL joins the solve base with "/solve", trimming trailing slashes.
func (e EndpointsConfig) SolveURL() string {
	base := strings.TrimRight(strings.TrimSpace(e.SolveBaseURL), "/")
	if base == "" {
		return ""
	}
	return base + "/solve"
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Welcome string `yaml:"welcome"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
	File     string `yaml:"file"`     // empty = stdout
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9100"; empty disables the endpoint
}

type BotConfig struct {
	Token      string        `yaml:"token"`
	Workers    int           `yaml:"workers"`
	RateLimit  int           `yaml:"rate_limit"` // messages per window per chat
	RateWindow time.Duration `yaml:"rate_window"`

	// Sessions with no new message for SessionIdle are dropped; checked every SweepInterval.
	SessionIdle   time.Duration `yaml:"session_idle"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DevServerConfig struct {
	Port            int      `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	PrimaryOrigin   string   `yaml:"primary_origin"`
	Provider        string   `yaml:"provider"` // openai | gemini | echo
	OpenAIKey       string   `yaml:"openai_key"`
	OpenAIBaseURL   string   `yaml:"openai_base_url"`
	GeminiKey       string   `yaml:"gemini_key"`
	GeminiURL       string   `yaml:"gemini_url"`
	Model           string   `yaml:"model"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	ConcurrentLimit int      `yaml:"concurrent_limit"`

	// Retrieval; each source is skipped when its key is empty.
	TavilyKey      string        `yaml:"tavily_key"`
	NewsKey        string        `yaml:"news_key"`
	MaxWebResults  int           `yaml:"max_web_results"`
	MaxNewsResults int           `yaml:"max_news_results"`
	SearchTimeout  time.Duration `yaml:"search_timeout"`
}

type Config struct {
	Endpoints EndpointsConfig `yaml:"endpoints"`
	HTTP      HTTPConfig      `yaml:"http"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Bot       BotConfig       `yaml:"bot"`
	Redis     RedisConfig     `yaml:"redis"`
	DevServer DevServerConfig `yaml:"devserver"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file (optional when missing), applies .env and
// environment overrides, then defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only setup
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// Validate checks what the client front-ends need. The dev server has no hard requirements.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoints.ChatURL) == "" {
		return errors.New("endpoints.chat_url is required (or set API_URL)")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Endpoints.ChatURL = getEnvDefault("API_URL", getEnvDefault("LAMBDA_URL", cfg.Endpoints.ChatURL))
	cfg.Endpoints.SolveBaseURL = getEnvDefault("SOLVE_BASE_URL", cfg.Endpoints.SolveBaseURL)
	cfg.HTTP.Timeout = getEnvDurationDefault("HTTP_TIMEOUT", cfg.HTTP.Timeout)
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnvDefault("LOG_FILE", cfg.Log.File)
	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Bot.Token = getEnvDefault("TELEGRAM_BOT_TOKEN", cfg.Bot.Token)
	cfg.Redis.URL = getEnvDefault("REDIS_URL", cfg.Redis.URL)
	cfg.DevServer.OpenAIKey = getEnvDefault("OPENAI_API_KEY", cfg.DevServer.OpenAIKey)
	cfg.DevServer.GeminiKey = getEnvDefault("GEMINI_API_KEY", cfg.DevServer.GeminiKey)
	cfg.DevServer.TavilyKey = getEnvDefault("TAVILY_API_KEY", cfg.DevServer.TavilyKey)
	cfg.DevServer.NewsKey = getEnvDefault("NEWS_API_KEY", cfg.DevServer.NewsKey)
	cfg.DevServer.Port = getEnvIntDefault("PORT", cfg.DevServer.Port)
	cfg.DevServer.AllowedOrigins = getEnvListDefault("ALLOWED_ORIGINS", cfg.DevServer.AllowedOrigins)
}

func applyDefaults(cfg *Config) {
	if cfg.Endpoints.SolveBaseURL == "" {
		cfg.Endpoints.SolveBaseURL = cfg.Endpoints.ChatURL
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = 60 * time.Second
	}
	if cfg.Session.Welcome == "" {
		cfg.Session.Welcome = DefaultWelcome
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.RateLimit <= 0 {
		cfg.Bot.RateLimit = 20
	}
	if cfg.Bot.RateWindow <= 0 {
		cfg.Bot.RateWindow = time.Minute
	}
	if cfg.Bot.SessionIdle <= 0 {
		cfg.Bot.SessionIdle = 24 * time.Hour
	}
	if cfg.Bot.SweepInterval <= 0 {
		cfg.Bot.SweepInterval = 10 * time.Minute
	}
	if cfg.DevServer.Port == 0 {
		cfg.DevServer.Port = 8787
	}
	if len(cfg.DevServer.AllowedOrigins) == 0 {
		cfg.DevServer.AllowedOrigins = []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://127.0.0.1:5173",
		}
	}
	if cfg.DevServer.Provider == "" {
		switch {
		case cfg.DevServer.OpenAIKey != "":
			cfg.DevServer.Provider = "openai"
		case cfg.DevServer.GeminiKey != "":
			cfg.DevServer.Provider = "gemini"
		default:
			cfg.DevServer.Provider = "echo"
		}
	}
	if cfg.DevServer.Model == "" {
		switch cfg.DevServer.Provider {
		case "gemini":
			cfg.DevServer.Model = "gemini-2.0-flash"
		default:
			cfg.DevServer.Model = "gpt-4o-mini"
		}
	}
	if cfg.DevServer.MaxOutputTokens <= 0 {
		cfg.DevServer.MaxOutputTokens = 1500
	}
	if cfg.DevServer.ConcurrentLimit <= 0 {
		cfg.DevServer.ConcurrentLimit = 16
	}
	if cfg.DevServer.PrimaryOrigin == "" {
		cfg.DevServer.PrimaryOrigin = cfg.DevServer.AllowedOrigins[0]
	}
	if cfg.DevServer.MaxWebResults <= 0 {
		cfg.DevServer.MaxWebResults = 5
	}
	if cfg.DevServer.MaxNewsResults <= 0 {
		cfg.DevServer.MaxNewsResults = 3
	}
	if cfg.DevServer.SearchTimeout <= 0 {
		cfg.DevServer.SearchTimeout = 20 * time.Second
	}
}

func getEnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
