package applyrelevanceranking

import "time"

type Config struct {
	MaxItems int
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxItems: 20,
		Timeout:  30 * time.Second,
	}
}
