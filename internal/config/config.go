// Package config provides YAML-based configuration loading for CareConnect.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level CareConnect configuration, loaded from
// careconnect.yaml.
type Config struct {
	Service   string          `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Reminders RemindersConfig `yaml:"reminders"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RemindersConfig controls the reminder delivery loop.
type RemindersConfig struct {
	Enabled bool `yaml:"enabled"`
	// PollCron is a 5-field cron expression for reminder sweep timing.
	PollCron string        `yaml:"poll_cron"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
}

// SlackConfig holds credentials for the Slack notifier.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds credentials for the Discord notifier.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" && c.Service != "" {
		c.Database.Name = "careconnect_" + c.Service
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Reminders.PollCron == "" {
		c.Reminders.PollCron = "* * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Service == "" {
		errs = append(errs, "service is required")
	}
	if c.Reminders.Enabled {
		slackSet := c.Reminders.Slack.BotToken != ""
		discordSet := c.Reminders.Discord.BotToken != ""
		if !slackSet && !discordSet {
			errs = append(errs, "reminders.enabled requires slack or discord credentials")
		}
		if slackSet && c.Reminders.Slack.ChannelID == "" {
			errs = append(errs, "reminders.slack.channel_id is required with a bot token")
		}
		if discordSet && c.Reminders.Discord.ChannelID == "" {
			errs = append(errs, "reminders.discord.channel_id is required with a bot token")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
