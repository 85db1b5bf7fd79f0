package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys. Environment variables use the upper-case form.
const (
	KeyAppName         = "app_name"
	KeyDebug           = "debug"
	KeyAgentModelsRoot = "agent_models_root"
	KeyCredentialsFile = "gmail_app_credentials_file"
	KeyTokenFile       = "gmail_app_token_file"
	KeyUserID          = "gmail_user_id"
	KeyBridgeAddr      = "bridge_addr"
	KeyMetricsAddr     = "metrics_addr"
	KeyTimezone        = "timezone"
)

// Defaults.
const (
	DefaultAppName     = "PersonalAgent"
	DefaultModelRoot   = "gemini-2.0-flash-exp"
	DefaultTokenFile   = "gmail_token.json"
	DefaultUserID      = "me"
	DefaultBridgeAddr  = ":8000"
	DefaultMetricsAddr = ":9090"
)

const (
	envPathVariable   = "ENV_PATH"
	defaultDotenvFile = ".env"
)

// ErrNoCredentials is returned when a Gmail command runs without a
// credentials file configured.
var ErrNoCredentials = errors.New("GMAIL_APP_CREDENTIALS_FILE is not set")

// Config is the resolved application configuration.
type Config struct {
	AppName         string `mapstructure:"app_name"`
	Debug           bool   `mapstructure:"debug"`
	AgentModelsRoot string `mapstructure:"agent_models_root"`
	CredentialsFile string `mapstructure:"gmail_app_credentials_file"`
	TokenFile       string `mapstructure:"gmail_app_token_file"`
	UserID          string `mapstructure:"gmail_user_id"`
	BridgeAddr      string `mapstructure:"bridge_addr"`
	MetricsAddr     string `mapstructure:"metrics_addr"`
	Timezone        string `mapstructure:"timezone"`

	// EnvFile is the dotenv file that was read, if any.
	EnvFile string `mapstructure:"-"`
}

// Option adjusts loading.
type Option func(*loader)

type loader struct {
	envFile string
	flags   map[string]*pflag.Flag
}

// WithEnvFile reads the given dotenv file instead of ENV_PATH or ./.env.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// WithFlag lets a command-line flag override key when the flag was set.
func WithFlag(key string, f *pflag.Flag) Option {
	return func(l *loader) {
		if f != nil {
			l.flags[key] = f
		}
	}
}

// Load resolves configuration from defaults, an optional dotenv file, the
// environment and flags, in increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	l := &loader{flags: make(map[string]*pflag.Flag)}
	for _, opt := range opts {
		opt(l)
	}

	v := viper.New()
	v.SetDefault(KeyAppName, DefaultAppName)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyAgentModelsRoot, DefaultModelRoot)
	v.SetDefault(KeyCredentialsFile, "")
	v.SetDefault(KeyTokenFile, DefaultTokenFile)
	v.SetDefault(KeyUserID, DefaultUserID)
	v.SetDefault(KeyBridgeAddr, DefaultBridgeAddr)
	v.SetDefault(KeyMetricsAddr, DefaultMetricsAddr)
	v.SetDefault(KeyTimezone, "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	envFile, err := resolveEnvFile(l.envFile)
	if err != nil {
		return nil, err
	}
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
	}

	for key, f := range l.flags {
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

// resolveEnvFile picks the dotenv file: an explicit path must exist, ENV_PATH
// must exist when set, and ./.env is used only if present.
func resolveEnvFile(explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(envPathVariable)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("env file %s: %w", path, err)
		}
		return path, nil
	}
	if _, err := os.Stat(defaultDotenvFile); err == nil {
		return defaultDotenvFile, nil
	}
	return "", nil
}

// RequireGmail checks the settings needed to reach the Gmail API.
func (c *Config) RequireGmail() error {
	if c.CredentialsFile == "" {
		return ErrNoCredentials
	}
	if c.TokenFile == "" {
		return errors.New("GMAIL_APP_TOKEN_FILE is empty")
	}
	return nil
}
