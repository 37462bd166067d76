package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Feed: FeedConfig{
			HTTPTimeout:     5 * time.Second,
			RefreshInterval: 1 * time.Minute,
			UserAgent:       "qrsum-test/1.0",
		},
		Query: QueryConfig{
			PageSize: 10,
			Timezone: "UTC",
		},
		Log:     LogConfig{Level: "off"},
		UI:      def.UI,
		Keys:    def.Keys,
		Summary: def.Summary,
	}
}
