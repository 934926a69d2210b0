package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ChannelsDir       string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	ProcessLimit      int
	APIAccessKey      string

	// Upstream configuration
	UserAgent     string
	RedditBaseURL string
	RedditCookie  string

	// Classifier configuration
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Application metadata
	Debug   bool
	Version string
}
