// Package config handles vidsage configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/vidsage/config.yaml, /etc/vidsage/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vidsage", "config.yaml"))
	}

	paths = append(paths, "/etc/vidsage/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all vidsage configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Providers ProvidersConfig `yaml:"providers"`
	Piped     PipedConfig     `yaml:"piped"`
	Video     VideoConfig     `yaml:"video"`
	Speech    SpeechConfig    `yaml:"speech"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	DataDir   string          `yaml:"data_dir"`
	TempDir   string          `yaml:"temp_dir"`
	LogLevel  string          `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// ProvidersConfig holds API credentials for the LLM providers. A missing
// key disables that provider's models in the catalog rather than failing
// startup.
type ProvidersConfig struct {
	GeminiAPIKey     string `yaml:"gemini_api_key"`
	OpenRouterAPIKey string `yaml:"openrouter_api_key"`
	GroqAPIKey       string `yaml:"groq_api_key"`
}

// PipedConfig defines the ordered list of caption-proxy instances tried
// for YouTube metadata and subtitle tracks. First non-error response wins.
type PipedConfig struct {
	Instances []string `yaml:"instances"`
}

// VideoConfig holds video processing policy.
type VideoConfig struct {
	// MaxDurationSeconds rejects videos longer than this before any
	// transcript work begins (default 36000 = 10 hours).
	MaxDurationSeconds int `yaml:"max_duration_seconds"`

	// YtDlpPath is the path to the yt-dlp binary. If empty, the binary
	// is located via exec.LookPath.
	YtDlpPath string `yaml:"yt_dlp_path"`

	// SubtitleLanguage is the preferred subtitle language code (default "en").
	SubtitleLanguage string `yaml:"subtitle_language"`
}

// SpeechConfig holds speech-to-text settings.
type SpeechConfig struct {
	// BaseURL is the OpenAI-compatible transcription endpoint
	// (default: Groq's endpoint).
	BaseURL string `yaml:"base_url"`

	// Model is the Whisper model name (default "whisper-large-v3").
	Model string `yaml:"model"`

	// FfmpegPath is the path to the ffmpeg binary used to split
	// oversized audio into chunks. Resolved via exec.LookPath if empty.
	FfmpegPath string `yaml:"ffmpeg_path"`
}

// CacheConfig holds response cache policy.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"` // default 100
	TTLSeconds int `yaml:"ttl_seconds"` // default 300
}

// RateLimitConfig holds per-client rate limiting for the HTTP layer.
type RateLimitConfig struct {
	Requests int `yaml:"requests"` // requests per window (default 100)
	WindowS  int `yaml:"window_seconds"`
}

// DefaultPipedInstances is the fallback caption-proxy instance list used
// when the config file names none.
var DefaultPipedInstances = []string{
	"https://pipedapi.kavin.rocks",
	"https://pipedapi-libre.kavin.rocks",
	"https://watchapi.whatever.social",
	"https://pipedapi.adminforge.de",
}

// Load reads configuration from a YAML file. Environment variables in
// the file body ($VAR or ${VAR}) are expanded before parsing, so API
// keys can stay in the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns a default configuration. Provider keys are read from
// the environment so the service is usable without a config file.
func Default() *Config {
	cfg := &Config{
		Listen: ListenConfig{Port: 8080},
		Providers: ProvidersConfig{
			GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
			OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
			GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 8080
	}
	if len(c.Piped.Instances) == 0 {
		c.Piped.Instances = DefaultPipedInstances
	}
	if c.Video.MaxDurationSeconds == 0 {
		c.Video.MaxDurationSeconds = 36000
	}
	if c.Video.SubtitleLanguage == "" {
		c.Video.SubtitleLanguage = "en"
	}
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Speech.Model == "" {
		c.Speech.Model = "whisper-large-v3"
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 100
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.WindowS == 0 {
		c.RateLimit.WindowS = 60
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
}
