package config

import "go.uber.org/zap"

// NewLogger builds the process logger. Production config (JSON, info level)
// unless APP_ENV=development.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
