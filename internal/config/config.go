package config

import "time"

// Config is the root configuration for all spot-archive binaries.
type Config struct {
	API       APIConfig       `yaml:"api"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Areas     []string        `yaml:"areas"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Stats     StatsConfig     `yaml:"stats"`
	Notify    NotifyConfig    `yaml:"notify"`
	Serve     ServeConfig     `yaml:"serve"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

// APIConfig holds transparency platform API settings.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	SecurityToken string        `yaml:"security_token"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// RateLimitConfig bounds outbound request rate against the upstream API.
type RateLimitConfig struct {
	MaxCalls int           `yaml:"max_calls"`
	Period   time.Duration `yaml:"period"`
}

// ArchiveConfig selects and configures the archive backend.
type ArchiveConfig struct {
	Backend     string   `yaml:"backend"`      // "filesystem" or "postgres"
	Root        string   `yaml:"root"`         // filesystem archive root
	MergePolicy string   `yaml:"merge_policy"` // "union" or "latest-wins"
	Postgres    DBConfig `yaml:"postgres"`
}

// DBConfig holds a single PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// IngestConfig holds the default day-ahead ingestion window.
type IngestConfig struct {
	DaysBehind int `yaml:"days_behind"`
	DaysAhead  int `yaml:"days_ahead"`
}

// StatsConfig holds statistics settings. An empty SQLitePath disables the
// sqlite history recorder.
type StatsConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// NotifyConfig holds Web Push notification settings.
type NotifyConfig struct {
	SubscriptionEndpoint string        `yaml:"subscription_endpoint"`
	AdminToken           string        `yaml:"admin_token"`
	VAPIDPrivateKey      string        `yaml:"vapid_private_key"`
	VAPIDPublicKey       string        `yaml:"vapid_public_key"`
	VAPIDSubject         string        `yaml:"vapid_subject"`
	TTL                  time.Duration `yaml:"ttl"`
}

// ServeConfig holds the archive file server settings. Root is the directory
// served over HTTP; the archive root normally lives beneath it.
type ServeConfig struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"`
}

// ScheduleConfig holds daemon cron expressions (with a seconds field).
type ScheduleConfig struct {
	IngestCron string `yaml:"ingest_cron"`
	StatsCron  string `yaml:"stats_cron"`
	NotifyCron string `yaml:"notify_cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}
