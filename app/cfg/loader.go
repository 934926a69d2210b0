package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/purple-check.db" description:"Path to the SQLite database file"`

	// Application configuration
	ChannelsDir       string `long:"channels-dir" env:"CHANNELS_DIR" default:"./channels" description:"Directory containing channel configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for channel fetching"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	ProcessLimit      int    `long:"process-limit" env:"PROCESS_LIMIT" default:"0" description:"Maximum posts per processing run (0 = no limit)"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Upstream configuration
	UserAgent     string `long:"user-agent" env:"USER_AGENT" default:"purple-check/1.0" description:"User agent string for HTTP requests"`
	RedditBaseURL string `long:"reddit-base-url" env:"REDDIT_BASE_URL" default:"https://www.reddit.com" description:"Base URL of the listing API"`
	RedditCookie  string `long:"reddit-cookie" env:"REDDIT_COOKIE" description:"Session cookie applied to outbound requests (optional)"`

	// Classifier configuration
	GeminiAPIKey  string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key (required)" required:"true"`
	GeminiModel   string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.0-flash" description:"Gemini model used for classification"`
	GeminiBaseURL string `long:"gemini-base-url" env:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com" description:"Base URL of the classifier API"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		ChannelsDir:       raw.ChannelsDir,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		ProcessLimit:      raw.ProcessLimit,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		RedditBaseURL:     raw.RedditBaseURL,
		RedditCookie:      raw.RedditCookie,
		GeminiAPIKey:      raw.GeminiAPIKey,
		GeminiModel:       raw.GeminiModel,
		GeminiBaseURL:     raw.GeminiBaseURL,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
