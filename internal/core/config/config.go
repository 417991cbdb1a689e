// Package config loads the core's runtime configuration from a YAML file
// with environment variable expansion, the way the rest of this codebase's
// ancestry configures its server: godotenv for .env loading, yaml.v3 for the
// file itself, defaults applied after unmarshal.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the core's full runtime configuration.
type Config struct {
	Anthropic struct {
		APIKey string `yaml:"APIKey"`
		Model  string `yaml:"Model"`
	} `yaml:"Anthropic"`

	Database struct {
		SQLitePath string `yaml:"SQLitePath"`
	} `yaml:"Database"`

	RateGovernor struct {
		InputTokensPerMinute  int `yaml:"InputTokensPerMinute"`
		OutputTokensPerMinute int `yaml:"OutputTokensPerMinute"`
	} `yaml:"RateGovernor"`

	Swarm struct {
		MaxParallel       int `yaml:"MaxParallel"`
		SubTaskTimeoutSec int `yaml:"SubTaskTimeoutSec"`
		MaxRetries        int `yaml:"MaxRetries"`
		PollingCeilingSec int `yaml:"PollingCeilingSec"`
	} `yaml:"Swarm"`

	Browser struct {
		Headless           string `yaml:"Headless"`
		StealthMode        string `yaml:"StealthMode"`
		NavigateTimeoutSec int    `yaml:"NavigateTimeoutSec"`
	} `yaml:"Browser"`

	Logging struct {
		Level  string `yaml:"Level"`
		Format string `yaml:"Format"`
	} `yaml:"Logging"`

	Voice struct {
		Enabled          string `yaml:"Enabled"`
		ElevenLabsAPIKey string `yaml:"ElevenLabsAPIKey"`
		DefaultVoice     string `yaml:"DefaultVoice"`
	} `yaml:"Voice"`
}

// Load reads .env (if present, ignored if absent) then parses the YAML
// config at path, expanding ${VAR} references against the process
// environment before unmarshalling.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var c Config
			applyDefaults(&c)
			return c, nil
		}
		return Config{}, err
	}

	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	return c, nil
}

func applyDefaults(c *Config) {
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-5"
	}
	if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Database.SQLitePath == "" {
		home, _ := os.UserHomeDir()
		c.Database.SQLitePath = filepath.Join(home, ".agentcore", "data", "core.db")
	}
	if c.RateGovernor.InputTokensPerMinute == 0 {
		c.RateGovernor.InputTokensPerMinute = 40000
	}
	if c.RateGovernor.OutputTokensPerMinute == 0 {
		c.RateGovernor.OutputTokensPerMinute = 8000
	}
	if c.Swarm.MaxParallel == 0 {
		c.Swarm.MaxParallel = 3
	}
	if c.Swarm.SubTaskTimeoutSec == 0 {
		c.Swarm.SubTaskTimeoutSec = 120
	}
	if c.Swarm.MaxRetries == 0 {
		c.Swarm.MaxRetries = 3
	}
	if c.Swarm.PollingCeilingSec == 0 {
		c.Swarm.PollingCeilingSec = 300
	}
	if c.Browser.Headless == "" {
		c.Browser.Headless = "true"
	}
	if c.Browser.StealthMode == "" {
		c.Browser.StealthMode = "true"
	}
	if c.Browser.NavigateTimeoutSec == 0 {
		c.Browser.NavigateTimeoutSec = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Voice.ElevenLabsAPIKey == "" {
		c.Voice.ElevenLabsAPIKey = os.Getenv("ELEVENLABS_API_KEY")
	}
}

func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

func (c Config) IsBrowserHeadless() bool { return parseBool(c.Browser.Headless, true) }
func (c Config) IsStealthModeOn() bool   { return parseBool(c.Browser.StealthMode, true) }
func (c Config) IsVoiceEnabled() bool    { return parseBool(c.Voice.Enabled, false) }
