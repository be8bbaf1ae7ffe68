package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath    string `yaml:"db_path"`
	ExportDir string `yaml:"export_dir"`
	ImportDir string `yaml:"import_dir"`

	Timezone  string `yaml:"timezone_default"`
	WeekStart string `yaml:"week_start"` // yyyy-MM-dd; empty means most recent Sunday

	ActivityLowMax    int `yaml:"activity_low_max"`
	ActivityMediumMax int `yaml:"activity_medium_max"`

	SuggestionLimit int `yaml:"suggestion_limit"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`
	SlackTopN      int    `yaml:"slack_top_n"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	LLMModel        string `yaml:"llm_model"`

	WatchSchedule string `yaml:"watch_schedule"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	configPath := "killfeed.yaml"
	if envPath := os.Getenv("KILLFEED_CONFIG"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.DBPath, "KILLFEED_DB_PATH")
	envOverride(&cfg.ExportDir, "KILLFEED_EXPORT_DIR")
	envOverride(&cfg.ImportDir, "KILLFEED_IMPORT_DIR")
	envOverride(&cfg.Timezone, "KILLFEED_TIMEZONE")
	envOverride(&cfg.WeekStart, "KILLFEED_WEEK_START")
	envOverrideInt(&cfg.ActivityLowMax, "KILLFEED_ACTIVITY_LOW_MAX")
	envOverrideInt(&cfg.ActivityMediumMax, "KILLFEED_ACTIVITY_MEDIUM_MAX")
	envOverrideInt(&cfg.SuggestionLimit, "KILLFEED_SUGGESTION_LIMIT")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverrideInt(&cfg.SlackTopN, "KILLFEED_SLACK_TOP_N")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLMModel, "KILLFEED_LLM_MODEL")
	envOverride(&cfg.WatchSchedule, "KILLFEED_WATCH_SCHEDULE")

	applyDefaults(&cfg)
	validate(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = "./killfeed.db"
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "./exports"
	}
	if cfg.ImportDir == "" {
		cfg.ImportDir = "./imports"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.ActivityLowMax == 0 {
		cfg.ActivityLowMax = 10
	}
	if cfg.ActivityMediumMax == 0 {
		cfg.ActivityMediumMax = 30
	}
	if cfg.SuggestionLimit == 0 {
		cfg.SuggestionLimit = suggestDefaultLimit
	}
	if cfg.SlackTopN == 0 {
		cfg.SlackTopN = 10
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultLLMModel
	}
	if cfg.WatchSchedule == "" {
		cfg.WatchSchedule = "@every 15m"
	}
}

func validate(cfg *Config) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone_default '%s': %v", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.WeekStart != "" {
		if _, err := ParseWeekID(cfg.WeekStart); err != nil {
			log.Fatalf("invalid week_start '%s': want yyyy-MM-dd: %v", cfg.WeekStart, err)
		}
	}
	if cfg.ActivityLowMax >= cfg.ActivityMediumMax {
		log.Fatalf("activity_low_max (%d) must be below activity_medium_max (%d)",
			cfg.ActivityLowMax, cfg.ActivityMediumMax)
	}
	if cfg.SuggestionLimit < 1 {
		log.Fatalf("invalid suggestion_limit '%d': must be >= 1", cfg.SuggestionLimit)
	}
}

// ApplyStoredConfig lets the database's config table override the recognized
// keys. Unknown keys are free-form and ignored here.
func ApplyStoredConfig(cfg *Config, stored map[string]string) error {
	if v, ok := stored["week_start"]; ok && v != "" {
		if _, err := ParseWeekID(v); err != nil {
			return fmt.Errorf("stored week_start %q: %w", v, err)
		}
		cfg.WeekStart = v
	}
	if v, ok := stored["activity_low_max"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("stored activity_low_max %q: %w", v, err)
		}
		cfg.ActivityLowMax = n
	}
	if v, ok := stored["activity_medium_max"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("stored activity_medium_max %q: %w", v, err)
		}
		cfg.ActivityMediumMax = n
	}
	if v, ok := stored["timezone_default"]; ok && v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return fmt.Errorf("stored timezone_default %q: %w", v, err)
		}
		cfg.Timezone = v
		cfg.Location = loc
	}
	return nil
}

// TargetWeekStart resolves the configured week start, defaulting to the week
// containing now.
func (cfg Config) TargetWeekStart(now time.Time) time.Time {
	if cfg.WeekStart != "" {
		start, err := ParseWeekID(cfg.WeekStart)
		if err == nil {
			return WeekStartFor(start)
		}
	}
	return WeekStartFor(now)
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("Invalid value for %s: %v", envKey, err)
		}
		*field = parsed
	}
}
