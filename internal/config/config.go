package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/finwatch/newsradar/pkg/pipeline"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Hotness  HotnessConfig  `yaml:"hotness"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures collection and analysis intervals.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
	AnalyzeInterval string `yaml:"analyze_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// ParseAnalyzeInterval returns the analysis interval as time.Duration.
func (s ScheduleConfig) ParseAnalyzeInterval() time.Duration {
	d, err := time.ParseDuration(s.AnalyzeInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// FeedsConfig configures the RSS ingestion collaborator.
type FeedsConfig struct {
	// TitleLength caps headline length for display; 0 disables truncation.
	TitleLength int          `yaml:"title_length"`
	Sources     []FeedItem   `yaml:"sources"`
	Filter      FilterConfig `yaml:"filter"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FilterConfig configures headline keyword filtering.
type FilterConfig struct {
	IncludeKeywords []string `yaml:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// PipelineConfig configures the dedup/clustering core.
type PipelineConfig struct {
	Eps         float64 `yaml:"eps"`
	MinSamples  int     `yaml:"min_samples"`
	TopK        int     `yaml:"top_k"`
	MaxFeatures int     `yaml:"max_features"`
	// StopWords selects the exclusion list: "english" or "none".
	StopWords      string   `yaml:"stop_words"`
	ExtraStopWords []string `yaml:"extra_stop_words"`
}

// HotnessConfig configures the hotness scorer.
type HotnessConfig struct {
	SourceWeights       map[string]float64        `yaml:"source_weights"`
	DefaultSourceWeight float64                   `yaml:"default_source_weight"`
	SurpriseKeywords    []string                  `yaml:"surprise_keywords"`
	Weights             pipeline.ComponentWeights `yaml:"weights"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	// MinScore is the hotness threshold above which a cluster is alerted.
	MinScore float64       `yaml:"min_score"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Webhook  WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	core := pipeline.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{Path: "./newsradar.db"},
		Schedule: ScheduleConfig{
			CollectInterval: "15m",
			AnalyzeInterval: "30m",
		},
		Feeds: FeedsConfig{
			TitleLength: 150,
			Sources: []FeedItem{
				{Name: "CNBC", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
				{Name: "CNN", URL: "http://rss.cnn.com/rss/money_news_international.rss"},
				{Name: "Yahoo", URL: "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%5EDJI,%5EGSPC,%5EIXIC&region=US&lang=en-US"},
			},
		},
		Pipeline: PipelineConfig{
			Eps:         core.Eps,
			MinSamples:  core.MinSamples,
			TopK:        core.TopK,
			MaxFeatures: core.MaxFeatures,
			StopWords:   "english",
		},
		Hotness: HotnessConfig{
			SourceWeights:       core.Hotness.SourceWeights,
			DefaultSourceWeight: core.Hotness.DefaultSourceWeight,
			SurpriseKeywords:    core.Hotness.SurpriseKeywords,
			Weights:             core.Hotness.Weights,
		},
		Alerts: AlertsConfig{MinScore: 0.7},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on invalid parameters, before any stage runs.
func (c *Config) Validate() error {
	if c.Pipeline.StopWords != "" && c.Pipeline.StopWords != "english" && c.Pipeline.StopWords != "none" {
		return fmt.Errorf("config: stop_words must be \"english\" or \"none\", got %q", c.Pipeline.StopWords)
	}
	return c.PipelineConfig().Validate()
}

// PipelineConfig resolves the yaml surface into the core's config.
func (c *Config) PipelineConfig() pipeline.Config {
	var stop []string
	if c.Pipeline.StopWords == "" || c.Pipeline.StopWords == "english" {
		stop = pipeline.EnglishStopWords()
	}
	stop = append(stop, c.Pipeline.ExtraStopWords...)

	return pipeline.Config{
		Eps:         c.Pipeline.Eps,
		MinSamples:  c.Pipeline.MinSamples,
		TopK:        c.Pipeline.TopK,
		MaxFeatures: c.Pipeline.MaxFeatures,
		StopWords:   stop,
		Hotness: pipeline.HotnessConfig{
			SourceWeights:       c.Hotness.SourceWeights,
			DefaultSourceWeight: c.Hotness.DefaultSourceWeight,
			SurpriseKeywords:    c.Hotness.SurpriseKeywords,
			Weights:             c.Hotness.Weights,
		},
	}
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEWSRADAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
