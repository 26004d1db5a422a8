package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL      = "https://web-api.tp.entsoe.eu/api"
	DefaultAPITimeout   = 120 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 1 * time.Second

	DefaultRateMaxCalls = 60
	DefaultRatePeriod   = 1 * time.Minute

	DefaultArchiveBackend = "filesystem"
	DefaultArchiveRoot    = "docs/electricity"
	DefaultMergePolicy    = "union"

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultDaysBehind = 4
	DefaultDaysAhead  = 2

	DefaultVAPIDSubject = "mailto:alerts@example.com"
	DefaultNotifyTTL    = 300 * time.Second

	DefaultServeAddr = ":8000"
	DefaultServeRoot = "docs"

	DefaultIngestCron = "0 5 * * * *"
	DefaultStatsCron  = "0 15 0 * * *"
	DefaultNotifyCron = "0 */10 * * * *"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Rate limit defaults
	if c.RateLimit.MaxCalls == 0 {
		c.RateLimit.MaxCalls = DefaultRateMaxCalls
	}
	if c.RateLimit.Period == 0 {
		c.RateLimit.Period = DefaultRatePeriod
	}

	// Area defaults: every known zone
	if len(c.Areas) == 0 {
		c.Areas = []string{"SE1", "SE2", "SE3", "SE4"}
	}

	// Archive defaults
	if c.Archive.Backend == "" {
		c.Archive.Backend = DefaultArchiveBackend
	}
	if c.Archive.Root == "" {
		c.Archive.Root = DefaultArchiveRoot
	}
	if c.Archive.MergePolicy == "" {
		c.Archive.MergePolicy = DefaultMergePolicy
	}
	applyDBDefaults(&c.Archive.Postgres)

	// Ingest window defaults
	if c.Ingest.DaysBehind == 0 {
		c.Ingest.DaysBehind = DefaultDaysBehind
	}
	if c.Ingest.DaysAhead == 0 {
		c.Ingest.DaysAhead = DefaultDaysAhead
	}

	// Notify defaults
	if c.Notify.VAPIDSubject == "" {
		c.Notify.VAPIDSubject = DefaultVAPIDSubject
	}
	if c.Notify.TTL == 0 {
		c.Notify.TTL = DefaultNotifyTTL
	}

	// Serve defaults
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
	if c.Serve.Root == "" {
		c.Serve.Root = DefaultServeRoot
	}

	// Schedule defaults
	if c.Schedule.IngestCron == "" {
		c.Schedule.IngestCron = DefaultIngestCron
	}
	if c.Schedule.StatsCron == "" {
		c.Schedule.StatsCron = DefaultStatsCron
	}
	if c.Schedule.NotifyCron == "" {
		c.Schedule.NotifyCron = DefaultNotifyCron
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
