package requestrecommendation

import "time"

type Config struct {
	FromEmail     string
	AWSRegion     string
	UploadBaseURL string
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
