// internal/workers/basket/optimize-basket/config.go
package optimizebasket

import (
	"time"

	"basket-optimizer/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	DefaultBudget int64
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:       30 * time.Second,
		DefaultBudget: 50000,
	}
	if cfg == nil {
		return c
	}
	if wc, ok := cfg.Workers[TaskType]; ok && wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.Optimizer.DefaultBudget > 0 {
		c.DefaultBudget = cfg.Optimizer.DefaultBudget
	}
	return c
}
