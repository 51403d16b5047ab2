package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFirestore:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be one of memory, firestore, postgres (got %q)", c.Store.Driver)
	}

	if c.Advisor.Timeout <= 0 {
		return fmt.Errorf("advisor.timeout must be > 0 (got %s)", c.Advisor.Timeout)
	}

	if err := c.Breaker.validate(); err != nil {
		return fmt.Errorf("breaker: %w", err)
	}

	if err := c.Recurring.validate(); err != nil {
		return fmt.Errorf("recurring: %w", err)
	}

	return nil
}

func (b *BreakerConfig) validate() error {
	if b.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be > 0 (got %d)", b.FailureThreshold)
	}
	if b.ResetTimeout <= 0 {
		return fmt.Errorf("reset_timeout must be > 0 (got %s)", b.ResetTimeout)
	}
	if b.HalfOpenMaxAttempts <= 0 {
		return fmt.Errorf("half_open_max_attempts must be > 0 (got %d)", b.HalfOpenMaxAttempts)
	}
	return nil
}

func (r *RecurringConfig) validate() error {
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1] (got %v)", r.MinConfidence)
	}
	if r.AmountBand <= 0 {
		return fmt.Errorf("amount_band must be > 0 (got %d)", r.AmountBand)
	}
	if r.MonthsBack <= 0 {
		return fmt.Errorf("months_back must be > 0 (got %d)", r.MonthsBack)
	}
	return nil
}
