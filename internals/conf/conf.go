package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Oudwins/botdesk/internals/version"

	z "github.com/Oudwins/zog"
)

const FileName = "botdesk.json"

type Config struct {
	Version string       `json:"-"`
	Server  ServerConfig `json:"server" zog:"server"`
	Bot     BotConfig    `json:"bot" zog:"bot"`
	Inbox   InboxConfig  `json:"inbox" zog:"inbox"`
}

type ServerConfig struct {
	DataDir string `json:"data_dir" zog:"data_dir"`
}

type BotConfig struct {
	APIHost        string `json:"api_host" zog:"api_host"`
	PollInterval   string `json:"poll_interval" zog:"poll_interval"`
	RequestTimeout string `json:"request_timeout" zog:"request_timeout"`
}

type InboxConfig struct {
	Capacity int `json:"capacity" zog:"capacity"`
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.botdesk").Transform(expandPathTransform),
})

var botSchema = z.Struct(z.Shape{
	"APIHost":        z.String().Default("https://api.telegram.org").Trim().URL(),
	"PollInterval":   z.String().Default("3500ms").Trim().TestFunc(isPositiveDuration, z.Message("must be a positive duration")),
	"RequestTimeout": z.String().Default("10s").Trim().TestFunc(isPositiveDuration, z.Message("must be a positive duration")),
})

var inboxSchema = z.Struct(z.Shape{
	"Capacity": z.Int().Default(200).GT(0),
})

var ConfigSchema = z.Struct(z.Shape{
	"Server": serverSchema,
	"Bot":    botSchema,
	"Inbox":  inboxSchema,
})

// PollEvery is the parsed bot.poll_interval.
func (c *Config) PollEvery() time.Duration {
	d, _ := time.ParseDuration(c.Bot.PollInterval)
	return d
}

// RequestTimeout is the parsed bot.request_timeout.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Bot.RequestTimeout)
	return d
}

// Load reads botdesk.json from dataDir, or from the default data dir when
// dataDir is empty. A missing or empty file yields the defaults.
func Load(dataDir string) (*Config, error) {
	defaults := &Config{}
	if errs := ConfigSchema.Parse(map[string]any{}, defaults); errs != nil {
		return nil, fmt.Errorf("parse defaults:\n%s", z.Issues.Prettify(errs))
	}
	defaults.Version = version.Version()
	if dataDir != "" {
		expanded, err := expandPath(dataDir)
		if err != nil {
			return nil, err
		}
		defaults.Server.DataDir = filepath.Clean(expanded)
	}

	configPath := filepath.Join(defaults.Server.DataDir, FileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return defaults, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	parsed := &Config{}
	if errs := ConfigSchema.Parse(payload, parsed); errs != nil {
		return nil, fmt.Errorf("invalid %s:\n%s", configPath, z.Issues.Prettify(errs))
	}
	parsed.Version = defaults.Version
	// The file lives in the data dir, so it cannot move it.
	parsed.Server.DataDir = defaults.Server.DataDir
	return parsed, nil
}

func isPositiveDuration(valPtr *string, ctx z.Ctx) bool {
	d, err := time.ParseDuration(*valPtr)
	return err == nil && d > 0
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
