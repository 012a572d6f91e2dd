// Package config defines the application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmaraujo/picklist/internal/order"
	"github.com/dmaraujo/picklist/pkg/config"
	"github.com/dmaraujo/picklist/pkg/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	Ledger struct {
		URL     string        `koanf:"url"`
		Key     string        `koanf:"key"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"ledger"`

	Chat struct {
		Token      string `koanf:"token"`
		AppID      string `koanf:"appId"`
		GuildID    string `koanf:"guildId"`
		ChannelID  string `koanf:"channelId"`
		APIURL     string `koanf:"apiUrl"`
		GatewayURL string `koanf:"gatewayUrl"`
	} `koanf:"chat"`

	View struct {
		PageSize     int    `koanf:"pageSize"`
		StatusPolicy string `koanf:"statusPolicy"`
	} `koanf:"view"`

	Sync struct {
		PullInterval    time.Duration `koanf:"pullInterval"`
		CleanupInterval time.Duration `koanf:"cleanupInterval"`
	} `koanf:"sync"`

	Cache struct {
		Path       string        `koanf:"path"`
		FlushDelay time.Duration `koanf:"flushDelay"`
	} `koanf:"cache"`

	HTTPServer config.HTTPConfig     `koanf:"server"`
	Log        config.LogConfig      `koanf:"log"`
	Shutdown   config.ShutdownConfig `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Ledger ---\n")
	b.WriteString(fmt.Sprintf("  ledger.url: %s\n", c.Ledger.URL))
	b.WriteString(fmt.Sprintf("  ledger.key: %s\n", mask(c.Ledger.Key)))
	b.WriteString(fmt.Sprintf("  ledger.timeout: %v\n", c.Ledger.Timeout))

	b.WriteString("\n--- Chat ---\n")
	b.WriteString(fmt.Sprintf("  chat.token: %s\n", mask(c.Chat.Token)))
	b.WriteString(fmt.Sprintf("  chat.appId: %s\n", c.Chat.AppID))
	b.WriteString(fmt.Sprintf("  chat.guildId: %s\n", c.Chat.GuildID))
	b.WriteString(fmt.Sprintf("  chat.channelId: %s\n", c.Chat.ChannelID))

	b.WriteString("\n--- View ---\n")
	b.WriteString(fmt.Sprintf("  view.pageSize: %d\n", c.View.PageSize))
	b.WriteString(fmt.Sprintf("  view.statusPolicy: %s\n", c.View.StatusPolicy))

	b.WriteString("\n--- Sync ---\n")
	b.WriteString(fmt.Sprintf("  sync.pullInterval: %v\n", c.Sync.PullInterval))
	b.WriteString(fmt.Sprintf("  sync.cleanupInterval: %v\n", c.Sync.CleanupInterval))

	b.WriteString("\n--- Cache ---\n")
	b.WriteString(fmt.Sprintf("  cache.path: %s\n", c.Cache.Path))
	b.WriteString(fmt.Sprintf("  cache.flushDelay: %v\n", c.Cache.FlushDelay))

	b.WriteString("\n--- Server & Logging ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.Ledger.URL == "" {
		return fmt.Errorf("ledger URL is not configured")
	}
	if c.Ledger.Key == "" {
		return fmt.Errorf("ledger shared key is not configured")
	}
	if c.Chat.Token == "" {
		return fmt.Errorf("chat bot token is not configured")
	}
	if c.Chat.AppID == "" {
		return fmt.Errorf("chat application id is not configured")
	}
	if c.Chat.ChannelID == "" {
		return fmt.Errorf("chat target channel id is not configured")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache snapshot path is not configured")
	}
	if _, err := order.PolicyByName(c.View.StatusPolicy); err != nil {
		return err
	}
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	return nil
}
