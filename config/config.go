package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the bot's full configuration, read from a yaml file and
// overridable through YURI_-prefixed environment variables (for example
// YURI_DISCORD_TOKEN, YURI_DATABASE_URL).
type Config struct {
	Discord  DiscordConfig  `mapstructure:"discord"`
	Database DatabaseConfig `mapstructure:"database"`
}

type DiscordConfig struct {
	Token    string         `mapstructure:"token"`
	ServerID string         `mapstructure:"server-id"`
	Team     []string       `mapstructure:"team"`
	Channels ChannelsConfig `mapstructure:"channels"`
}

type ChannelsConfig struct {
	// ApproveID is the channel where decision messages are posted for the
	// team; VoteID is where approved submissions are announced.
	ApproveID string `mapstructure:"approve-id"`
	VoteID    string `mapstructure:"vote-id"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("YURI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that everything the bot cannot run without is present.
func (c *Config) Validate() error {
	switch {
	case c.Discord.Token == "":
		return fmt.Errorf("discord.token is required")
	case c.Discord.ServerID == "":
		return fmt.Errorf("discord.server-id is required")
	case len(c.Discord.Team) == 0:
		return fmt.Errorf("discord.team must list at least one member")
	case c.Discord.Channels.ApproveID == "":
		return fmt.Errorf("discord.channels.approve-id is required")
	case c.Discord.Channels.VoteID == "":
		return fmt.Errorf("discord.channels.vote-id is required")
	case c.Database.URL == "":
		return fmt.Errorf("database.url is required")
	}
	return nil
}
