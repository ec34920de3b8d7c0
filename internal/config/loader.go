package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (optional), then config.<APP_ENVIRONMENT>.yaml,
// then environment variables such as DATABASE_POSTGRES_HOST.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return build(v)
}

// LoadFromFile reads a specific YAML file, still honouring env overrides.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromLegacyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so env overrides reach Unmarshal even
// without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "jobportal-admin")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", "5000")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "jobportal")
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_connections", 25)
	v.SetDefault("database.postgres.max_idle", 5)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_minutes", 720)
	v.SetDefault("auth.require_session", true)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("captcha.enabled", true)
	v.SetDefault("captcha.secret_key", "")
	v.SetDefault("captcha.verify_url", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("captcha.timeout", 5000)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window_seconds", 60)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", 60000)

	v.SetDefault("accounts.delete_policy", DeletePolicyOrphan)
	v.SetDefault("applications.empty_is_not_found", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		v.Set(key, os.ExpandEnv(strVal))
	}
}

// overrideFromLegacyEnv keeps the short variable names used by existing
// deployments working.
func overrideFromLegacyEnv(cfg *Config) {
	if val := os.Getenv("PORT"); val != "" {
		cfg.App.Port = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		cfg.Auth.JWTSecret = val
	}
	if val := os.Getenv("RECAPTCHA_SECRET_KEY"); val != "" {
		cfg.Captcha.SecretKey = val
	}
	if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		cfg.LLM.GeminiAPIKey = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Database.Redis.Address = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.BcryptCost < 10 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 720
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 10
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.Captcha.Timeout <= 0 {
		cfg.Captcha.Timeout = 5000
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 60000
	}
	cfg.Accounts.DeletePolicy = strings.ToLower(strings.TrimSpace(cfg.Accounts.DeletePolicy))
	if cfg.Accounts.DeletePolicy == "" {
		cfg.Accounts.DeletePolicy = DeletePolicyOrphan
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Auth.RequireSession && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth.require_session is on")
	}
	if cfg.Captcha.Enabled && cfg.Captcha.SecretKey == "" {
		return fmt.Errorf("captcha.secret_key is required when captcha.enabled is on")
	}
	switch cfg.Accounts.DeletePolicy {
	case DeletePolicyOrphan, DeletePolicyCascade:
	default:
		return fmt.Errorf("accounts.delete_policy must be %q or %q", DeletePolicyOrphan, DeletePolicyCascade)
	}
	return nil
}

// loadEnvFile loads the first .env found walking up to the module root.
func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
