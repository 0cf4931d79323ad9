package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Payments PaymentsConfig `mapstructure:"payments"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Invoice  InvoiceConfig  `mapstructure:"invoice"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	CookieSecure      bool          `mapstructure:"cookie_secure"`
	PostLoginRedirect string        `mapstructure:"post_login_redirect"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LLMConfig holds the OpenAI-compatible endpoint configuration
type LLMConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Model              string        `mapstructure:"model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	Timeout            time.Duration `mapstructure:"timeout"`
	PromptsPath        string        `mapstructure:"prompts_path"` // optional YAML override
}

// AuthConfig holds sign-in and session configuration
type AuthConfig struct {
	GoogleClientID     string        `mapstructure:"google_client_id"`
	GoogleClientSecret string        `mapstructure:"google_client_secret"`
	RedirectURL        string        `mapstructure:"redirect_url"`
	SessionSecret      string        `mapstructure:"session_secret"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
}

// PaymentsConfig holds credit amounts and Stripe settings
type PaymentsConfig struct {
	WebhookSecret       string        `mapstructure:"webhook_secret"`
	WebhookTolerance    time.Duration `mapstructure:"webhook_tolerance"`
	PaymentLink         string        `mapstructure:"payment_link"`
	SignupCredits       int           `mapstructure:"signup_credits"`
	TopUpCredits        int           `mapstructure:"topup_credits"`
	TopUpPlan           string        `mapstructure:"topup_plan"`
	LowBalanceThreshold int           `mapstructure:"low_balance_threshold"`
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// InvoiceConfig holds the invoice theme
type InvoiceConfig struct {
	BannerColor     []int   `mapstructure:"banner_color"`
	HeaderFillColor []int   `mapstructure:"header_fill_color"`
	ClientLabel     string  `mapstructure:"client_label"`
	ThankYouNote    string  `mapstructure:"thank_you_note"`
	ChecksPayable   bool    `mapstructure:"checks_payable"`
	PreviewDPI      float64 `mapstructure:"preview_dpi"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file, a .env file next to the working
// directory and environment variables. A missing config file is not an
// error; defaults and environment then apply.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cookie_secure", true)
	v.SetDefault("server.post_login_redirect", "/")
	v.SetDefault("server.max_upload_bytes", 25<<20)

	// Database defaults
	v.SetDefault("database.path", "data/quickquote.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.transcription_model", "whisper-large-v3-turbo")
	v.SetDefault("llm.timeout", 60*time.Second)

	// Auth defaults
	v.SetDefault("auth.redirect_url", "http://localhost:8080/auth/callback")
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)

	// Payment defaults
	v.SetDefault("payments.webhook_tolerance", 5*time.Minute)
	v.SetDefault("payments.signup_credits", 2)
	v.SetDefault("payments.topup_credits", 400)
	v.SetDefault("payments.topup_plan", "Pro Monthly")
	v.SetDefault("payments.low_balance_threshold", 10)

	// Storage defaults
	v.SetDefault("storage.base_dir", "data/documents")

	// Invoice defaults
	v.SetDefault("invoice.banner_color", []int{30, 58, 138})
	v.SetDefault("invoice.header_fill_color", []int{243, 244, 246})
	v.SetDefault("invoice.client_label", "Customer")
	v.SetDefault("invoice.thank_you_note", "Thank you!")
	v.SetDefault("invoice.checks_payable", true)
	v.SetDefault("invoice.preview_dpi", 96.0)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string]string{
		"llm.api_key":               "LLM_API_KEY",
		"llm.base_url":              "LLM_BASE_URL",
		"auth.google_client_id":     "GOOGLE_CLIENT_ID",
		"auth.google_client_secret": "GOOGLE_CLIENT_SECRET",
		"auth.redirect_url":         "OAUTH_REDIRECT_URL",
		"auth.session_secret":       "SESSION_SECRET",
		"payments.webhook_secret":   "STRIPE_WEBHOOK_SECRET",
		"payments.payment_link":     "STRIPE_PAYMENT_LINK",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	if c.Auth.GoogleClientID == "" {
		return fmt.Errorf("auth.google_client_id is required")
	}
	if c.Auth.GoogleClientSecret == "" {
		return fmt.Errorf("auth.google_client_secret is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		return fmt.Errorf("auth.session_secret must be at least 32 characters")
	}

	if c.Payments.WebhookSecret == "" {
		return fmt.Errorf("payments.webhook_secret is required")
	}
	if c.Payments.SignupCredits < 0 || c.Payments.TopUpCredits <= 0 {
		return fmt.Errorf("payments credit amounts must be positive")
	}

	if err := validColor("invoice.banner_color", c.Invoice.BannerColor); err != nil {
		return err
	}
	if err := validColor("invoice.header_fill_color", c.Invoice.HeaderFillColor); err != nil {
		return err
	}

	return nil
}

func validColor(key string, rgb []int) error {
	if len(rgb) != 3 {
		return fmt.Errorf("%s must have three components", key)
	}
	for _, c := range rgb {
		if c < 0 || c > 255 {
			return fmt.Errorf("%s components must be within 0-255", key)
		}
	}
	return nil
}
