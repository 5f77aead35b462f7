package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spigell/talent-intake/internal/ai/gemini"
	"github.com/spigell/talent-intake/internal/logger"
	"github.com/spigell/talent-intake/internal/session"
	"github.com/spigell/talent-intake/internal/tenant"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app       = "talent-intake"
	envPrefix = "TALENT_INTAKE"
)

type Config struct {
	Listen       string                     `mapstructure:"listen"`
	RedisURL     string                     `mapstructure:"redis-url"`
	DatabaseURL  string                     `mapstructure:"database-url"`
	Session      SessionConfig              `mapstructure:"session"`
	Conversation ConversationConfig         `mapstructure:"conversation"`
	AI           *AIConfig                  `mapstructure:"ai"`
	Documents    DocumentsConfig            `mapstructure:"documents"`
	JobSources   map[string]JobSourceConfig `mapstructure:"job-sources"`
	JobCache     JobCacheConfig             `mapstructure:"job-cache"`
	Matching     MatchingConfig             `mapstructure:"matching"`
	Channel      ChannelConfig              `mapstructure:"channel"`
	Dispatch     DispatchConfig             `mapstructure:"dispatch"`
	Tenants      []tenant.Tenant            `mapstructure:"tenants"`
}

type SessionConfig struct {
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
}

type ConversationConfig struct {
	ResetKeyword      string        `mapstructure:"reset-keyword"`
	TurnTimeout       time.Duration `mapstructure:"turn-timeout"`
	ExtractionTimeout time.Duration `mapstructure:"extraction-timeout"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	FastModel      string `mapstructure:"fast-model"`
	ReasoningModel string `mapstructure:"reasoning-model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type DocumentsConfig struct {
	MaxBytes     int64         `mapstructure:"max-bytes"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AllowedTypes []string      `mapstructure:"allowed-types"`
	TempDir      string        `mapstructure:"temp-dir"`
	RatePerHost  float64       `mapstructure:"rate-per-host"`
	Burst        int           `mapstructure:"burst"`
}

// JobSourceConfig describes one named job source. Type is file, postgres or http.
type JobSourceConfig struct {
	Type      string `mapstructure:"type"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
}

type JobCacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type MatchingConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	JobTimeout  time.Duration `mapstructure:"job-timeout"`
}

type ChannelConfig struct {
	SendURL   string `mapstructure:"send-url"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
}

type DispatchConfig struct {
	WebhookToken     string `mapstructure:"webhook-token"`
	WebhookTokenFile string `mapstructure:"webhook-token-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-intake collects candidate profiles over chat, matches them to open jobs and forwards them to reviewers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"ai.gemini.api-key-file": envPrefix + "_GEMINI_API_KEY_FILE",
		"redis-url":              envPrefix + "_REDIS_URL",
		"database-url":           envPrefix + "_DATABASE_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("listen", ":8080")
	viper.SetDefault("session.backend", session.BackendSQLite)
	viper.SetDefault("session.retention", "720h")
	viper.SetDefault("session.sweep-interval", "1h")
	viper.SetDefault("conversation.reset-keyword", "/reset")
	viper.SetDefault("ai.provider", gemini.ProviderName)
	viper.SetDefault("matching.concurrency", 4)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-intake.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Running without a config file is fine; a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		return nil, errors.New("empty configuration")
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}

// validate returns startup warnings, or an error listing every problem found.
// Storage-only commands skip the conversation settings.
func (c *Config) validate(storageOnly bool) ([]string, error) {
	var errs, warnings []string

	if c.Session.Retention <= 0 {
		errs = append(errs, "session.retention must be positive")
	}
	if c.Session.Backend == session.BackendRedis && c.RedisURL == "" {
		errs = append(errs, "session.backend redis needs redis-url")
	}
	if storageOnly {
		if len(errs) > 0 {
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
		}
		return nil, nil
	}

	if p := strings.ToLower(c.AI.Provider); p != "" && p != gemini.ProviderName {
		errs = append(errs, fmt.Sprintf("unsupported ai.provider %q", c.AI.Provider))
	}
	if c.Matching.Concurrency < 0 {
		errs = append(errs, "matching.concurrency must not be negative")
	}

	for name, src := range c.JobSources {
		switch strings.ToLower(src.Type) {
		case jobSourceFile:
			if src.Path == "" {
				errs = append(errs, fmt.Sprintf("job-sources.%s.path is required", name))
			}
		case jobSourcePostgres:
			if c.DatabaseURL == "" {
				errs = append(errs, fmt.Sprintf("job-sources.%s needs database-url", name))
			}
		case jobSourceHTTP:
			if src.URL == "" {
				errs = append(errs, fmt.Sprintf("job-sources.%s.url is required", name))
			}
		default:
			errs = append(errs, fmt.Sprintf("job-sources.%s: unknown type %q", name, src.Type))
		}
	}
	if len(c.JobSources) == 0 {
		warnings = append(warnings, fmt.Sprintf("no job-sources configured, reading %s", defaultJobsFile))
	}
	if c.JobCache.TTL > 0 && c.RedisURL == "" {
		warnings = append(warnings, "job cache is in-memory only, set redis-url to share it between instances")
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return warnings, nil
}

// prepare builds the logger and a validated config, exiting on failure.
func prepare(command string, storageOnly bool) (*Config, *zap.Logger) {
	// Chat replies go to stdout.
	output := "stdout"
	if command == chatCommand {
		output = "stderr"
	}

	logger, err := logger.New(output, viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the "+app, zap.String("command", command), zap.String("version", version))

	warnings, err := config.validate(storageOnly)
	for _, w := range warnings {
		logger.Warn("configuration", zap.String("warning", w))
	}
	if err != nil {
		logger.Fatal("validating the config", zap.Error(err))
	}

	return config, logger
}
