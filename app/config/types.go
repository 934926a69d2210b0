package config

// ChannelConfig represents a complete channel configuration
type ChannelConfig struct {
	Channel  ChannelInfo     `yaml:"channel"`
	Settings ChannelSettings `yaml:"settings"`
}

// ChannelInfo contains basic channel information
type ChannelInfo struct {
	Name      string `yaml:"name"`
	Subreddit string `yaml:"subreddit"`
}

// ChannelSettings contains channel fetch settings
type ChannelSettings struct {
	Enabled         bool `yaml:"enabled"`
	RequestLimit    int  `yaml:"request_limit"`    // posts per listing page
	MaxPages        int  `yaml:"max_pages"`        // safety limit per fetch cycle
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
}
