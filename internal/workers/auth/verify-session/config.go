package verifysession

import "time"

type Config struct {
	Timeout         time.Duration
	SessionCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		SessionCacheTTL: time.Minute,
	}
}
