package crpt

import (
	"fmt"
	"time"

	"crptapi/internal/config"
	"crptapi/internal/ratelimit"
)

// NewFromConfig validates cfg and builds a client with its own limiter of
// cfg.RequestLimit requests per cfg.TimeUnit.
func NewFromConfig(cfg config.CRPTConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	interval, err := ratelimit.UnitDuration(cfg.TimeUnit)
	if err != nil {
		return nil, fmt.Errorf("crpt time unit: %w", err)
	}
	limiter, err := ratelimit.New(interval, cfg.RequestLimit)
	if err != nil {
		return nil, err
	}
	return NewClient(Config{
		BaseURL:    cfg.BaseURL,
		APIVersion: cfg.APIVersion,
		Token:      cfg.Token,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
	}, limiter, nil)
}
