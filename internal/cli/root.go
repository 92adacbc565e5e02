package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/srtctl/internal/model"
)

// Version is the srtctl release.
const Version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	serverURL string
	pin       string
	logLevel  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "srtctl",
	Short: "srtctl - client for the SRT subtitle correction service",
	Long: `srtctl drives a remote subtitle correction service.

It uploads .srt files, follows the server task until it finishes, downloads
the corrected files and reports what was replaced. It also manages the
correction and protection dictionaries the service applies.

Dictionary writes require the service PIN (--pin or SRTCTL_SERVER_PIN).`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command. ctx is canceled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("srtctl v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.srtctl/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&serverURL, "server", "", "service API root (default: http://localhost:5002/api)")
	flags.StringVar(&pin, "pin", "", "PIN for dictionary writes")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("server.base_url", flags.Lookup("server"))
	_ = viper.BindPFlag("server.pin", flags.Lookup("pin"))
	_ = viper.BindPFlag("output.log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and SRTCTL_* environment variables
func initConfig() {
	// .env is optional; variables already set win
	_ = godotenv.Load()

	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".srtctl"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// SRTCTL_SERVER_PIN -> server.pin
	viper.SetEnvPrefix("SRTCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(cfg *model.Config) {
	viper.SetDefault("server.base_url", cfg.Server.BaseURL)
	viper.SetDefault("server.pin", cfg.Server.PIN)

	viper.SetDefault("http.timeout", cfg.HTTP.Timeout)
	viper.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	viper.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	viper.SetDefault("http.insecure_tls", cfg.HTTP.InsecureTLS)
	viper.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	viper.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
	viper.SetDefault("http.no_proxy", cfg.HTTP.NoProxy)

	viper.SetDefault("task.poll_interval", cfg.Task.PollInterval)
	viper.SetDefault("task.max_polls", cfg.Task.MaxPolls)
	viper.SetDefault("task.tick_interval", cfg.Task.TickInterval)
	viper.SetDefault("task.synthetic_ceiling", cfg.Task.SyntheticCeiling)
	viper.SetDefault("task.decay_interval", cfg.Task.DecayInterval)
	viper.SetDefault("task.allowed_extensions", cfg.Task.AllowedExtensions)

	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)

	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)

	viper.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)

	viper.SetDefault("search.mode", string(cfg.Search.Mode))

	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("output.log_level", cfg.Output.LogLevel)
	viper.SetDefault("output.dir", cfg.Output.Dir)
}

// loadConfig returns the effective configuration.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}
	switch cfg.Search.Mode {
	case model.SearchRemote, model.SearchLocal:
	default:
		return nil, fmt.Errorf("invalid search.mode %q (want remote or local)", cfg.Search.Mode)
	}
	return cfg, nil
}

func setupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("output.log_level")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if viper.GetBool("output.verbose") {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}
