package config

import (
	"errors"
	"fmt"

	"github.com/utilitarian/spot-archive/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.SecurityToken == "" {
		return errors.New("api.security_token is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.RateLimit.MaxCalls < 1 {
		return errors.New("rate_limit.max_calls must be >= 1")
	}
	if c.RateLimit.Period <= 0 {
		return errors.New("rate_limit.period must be positive")
	}

	for _, area := range c.Areas {
		if _, err := model.LookupArea(area); err != nil {
			return fmt.Errorf("areas: %w", err)
		}
	}

	switch c.Archive.Backend {
	case "filesystem":
		if c.Archive.Root == "" {
			return errors.New("archive.root is required for the filesystem backend")
		}
	case "postgres":
		if err := c.Archive.Postgres.validate("archive.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("archive.backend must be \"filesystem\" or \"postgres\", got %q", c.Archive.Backend)
	}

	switch c.Archive.MergePolicy {
	case "union", "latest-wins":
	default:
		return fmt.Errorf("archive.merge_policy must be \"union\" or \"latest-wins\", got %q", c.Archive.MergePolicy)
	}

	if c.Ingest.DaysBehind < 0 {
		return errors.New("ingest.days_behind must be >= 0")
	}
	if c.Ingest.DaysAhead < 0 {
		return errors.New("ingest.days_ahead must be >= 0")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
