package model

import "time"

// Config is the effective client configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Task         TaskConfig         `yaml:"task" mapstructure:"task"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// ServerConfig locates the correction service.
type ServerConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"` // API root, e.g. http://localhost:5002/api
	PIN     string `yaml:"pin" mapstructure:"pin"`           // PIN for dictionary writes
}

// HTTPConfig controls the transport.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// TaskConfig controls submission and the poll loop.
type TaskConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	MaxPolls          int           `yaml:"max_polls" mapstructure:"max_polls"`                   // ~30 minutes at 1s
	TickInterval      time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`           // synthetic progress tick
	SyntheticCeiling  float64       `yaml:"synthetic_ceiling" mapstructure:"synthetic_ceiling"`   // synthetic progress never passes this
	DecayInterval     time.Duration `yaml:"decay_interval" mapstructure:"decay_interval"`         // failure decay step
	AllowedExtensions []string      `yaml:"allowed_extensions" mapstructure:"allowed_extensions"` // lower-case, with dot
}

// CacheConfig controls the in-memory dictionary snapshot. Snapshots never
// outlive the process.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig controls parallel downloads.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig paces requests per host.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// SearchMode selects where term search runs.
type SearchMode string

const (
	SearchRemote SearchMode = "remote" // server-side /dictionaries/search
	SearchLocal  SearchMode = "local"  // filter over the loaded snapshot
)

// SearchConfig controls term search.
type SearchConfig struct {
	Mode SearchMode `yaml:"mode" mapstructure:"mode"`
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	Dir      string `yaml:"dir" mapstructure:"dir"` // where corrected files are downloaded
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:5002/api",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "srtctl/0.1 (+https://github.com/ppiankov/srtctl)",
			MaxBodyBytes: 64 << 20,
		},
		Task: TaskConfig{
			PollInterval:      time.Second,
			MaxPolls:          1800,
			TickInterval:      200 * time.Millisecond,
			SyntheticCeiling:  85,
			DecayInterval:     50 * time.Millisecond,
			AllowedExtensions: []string{".srt"},
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Search: SearchConfig{
			Mode: SearchRemote,
		},
		Output: OutputConfig{
			LogLevel: "info",
			Dir:      "srtctl-output",
		},
	}
}
