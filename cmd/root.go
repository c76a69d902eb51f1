package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "seoul-job-matcher"
	envPrefix = "JOBMATCH"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	AI       AIConfig       `mapstructure:"ai"`
	Advice   AdviceConfig   `mapstructure:"advice"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Data     DataConfig     `mapstructure:"data"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max-open-conns" validate:"gte=0"`
}

type CacheConfig struct {
	Backend     string        `mapstructure:"backend" validate:"oneof=memory redis sql"`
	TTL         time.Duration `mapstructure:"ttl" validate:"gte=0"`
	InFlightTTL time.Duration `mapstructure:"in-flight-ttl" validate:"gte=0"`
	Cooldown    time.Duration `mapstructure:"cooldown" validate:"gte=0"`
	RedisURL    string        `mapstructure:"redis-url" validate:"required_if=Backend redis"`
	RedisPrefix string        `mapstructure:"redis-prefix"`
	// SQLitePath is used by the sql backend when database.url is empty.
	SQLitePath string `mapstructure:"sqlite-path"`
}

type AIConfig struct {
	Provider          string        `mapstructure:"provider" validate:"oneof=gemini openai"`
	Temperature       float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute" validate:"gte=0"`
	Gemini            GeminiConfig  `mapstructure:"gemini"`
	OpenAI            OpenAIConfig  `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type OpenAIConfig struct {
	APIKeyFile string        `mapstructure:"api-key-file"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type AdviceConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type AnalysisConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type DataConfig struct {
	JobsFile    string `mapstructure:"jobs-file"`
	ResumesFile string `mapstructure:"resumes-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "seoul-job-matcher analyses how well a senior job seeker's resume fits Seoul job postings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is seoul-job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
	bindEnv(viper.GetViper())
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max-open-conns", 0)
	v.SetDefault("cache.redis-url", "")
	v.SetDefault("cache.sqlite-path", "")
	v.SetDefault("ai.requests-per-minute", 0)
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.model", "")
	v.SetDefault("ai.openai.timeout", time.Duration(0))
	v.SetDefault("data.jobs-file", "")
	v.SetDefault("data.resumes-file", "")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.in-flight-ttl", 5*time.Minute)
	v.SetDefault("cache.cooldown", 60*time.Second)
	v.SetDefault("cache.redis-prefix", "jobmatch")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("advice.enabled", true)
	v.SetDefault("advice.timeout", time.Minute)
	v.SetDefault("analysis.timeout", 2*time.Minute)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Provider key files keep their conventional names.
	if err := v.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := v.BindEnv("ai.openai.api-key-file", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every key has a default or an env binding, so only an explicit config file is mandatory.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	validate := validator.New()
	validate.RegisterStructValidation(validateTimeouts, Config{})
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// validateTimeouts keeps an analysis shorter than its in-flight claim, so a
// second extraction cannot start while the first still runs.
func validateTimeouts(sl validator.StructLevel) {
	config := sl.Current().Interface().(Config)
	timeout, ttl := config.Analysis.Timeout, config.Cache.InFlightTTL
	if timeout > 0 && ttl > 0 && timeout >= ttl {
		sl.ReportError(config.Analysis.Timeout, "Analysis.Timeout", "Timeout", "ltinflightttl", ttl.String())
	}
}
