// Package config loads the pipeline configuration: a YAML file for the
// content settings and environment variables (optionally via a .env file)
// for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file structure.
type Config struct {
	// Sources are the channel IDs checked by the research step, in order.
	Sources []string `yaml:"youtube_channels"`

	// Interests steer relevance classification.
	Interests []string `yaml:"interests"`

	// StyleDir holds the author's reference texts (.txt / .md).
	StyleDir string `yaml:"style_dir"`

	// DBPath is the SQLite file for checkpoints and scheduled posts.
	DBPath string `yaml:"db_path"`

	// PollInterval is how often the scheduler scans for due posts.
	PollInterval Duration `yaml:"poll_interval"`

	Generator struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"generator"`

	Log struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`
}

// Duration wraps time.Duration so YAML values like "90s" or "5m" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Credentials are read from the environment, never from the YAML file.
type Credentials struct {
	OpenAIKey         string
	YouTubeKey        string
	TranscriptURL     string
	UnsplashAccessKey string
	SerpAPIKey        string
	LinkedInToken     string
	LinkedInAuthorURN string
	RedisAddr         string
}

// Load reads and validates the YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StyleDir == "" {
		c.StyleDir = "data/style_examples"
	}
	if c.DBPath == "" {
		c.DBPath = "ghostflow.db"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = Duration(time.Minute)
	}
	if c.Generator.Model == "" {
		c.Generator.Model = "gpt-4o"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// LoadCredentials reads credentials from the environment. If a .env file
// exists in the working directory it is loaded first; a missing file is not
// an error.
func LoadCredentials() Credentials {
	_ = godotenv.Load()

	return Credentials{
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		YouTubeKey:        os.Getenv("YOUTUBE_API_KEY"),
		TranscriptURL:     os.Getenv("TRANSCRIPT_API_URL"),
		UnsplashAccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		SerpAPIKey:        os.Getenv("SERPAPI_KEY"),
		LinkedInToken:     os.Getenv("LINKEDIN_ACCESS_TOKEN"),
		LinkedInAuthorURN: os.Getenv("LINKEDIN_AUTHOR_URN"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
	}
}
