package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"HuntScanner/internal/domain"
)

const (
	configPathEnv  = "HUNT_SCANNER_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	logLevelEnv    = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN
// selects the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls level and the optional rotating file sink.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// SchedulerConfig defines when ingestion cycles run.
type SchedulerConfig struct {
	CronExpression string `yaml:"cronExpression"`
}

// IngestConfig tunes the orchestrator. Timeouts are plain seconds so
// the YAML stays numeric.
type IngestConfig struct {
	Workers              int `yaml:"workers"`
	FetchTimeoutSeconds  int `yaml:"fetchTimeoutSeconds"`
	RetryAttempts        int `yaml:"retryAttempts"`
	RetryBackoffSeconds  int `yaml:"retryBackoffSeconds"`
	SoftFailureThreshold int `yaml:"softFailureThreshold"`
	HardFailureThreshold int `yaml:"hardFailureThreshold"`
}

// FetchTimeout resolves the per-source fetch timeout.
func (i IngestConfig) FetchTimeout() time.Duration {
	if i.FetchTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(i.FetchTimeoutSeconds) * time.Second
}

// RetryBackoff resolves the pause between fetch attempts.
func (i IngestConfig) RetryBackoff() time.Duration {
	if i.RetryBackoffSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(i.RetryBackoffSeconds) * time.Second
}

// Thresholds maps the configured failure counts onto the health machine.
func (i IngestConfig) Thresholds() domain.HealthThresholds {
	th := domain.DefaultThresholds()
	if i.SoftFailureThreshold > 0 {
		th.Soft = i.SoftFailureThreshold
	}
	if i.HardFailureThreshold > 0 {
		th.Hard = i.HardFailureThreshold
	}
	return th
}

// SourceConfig describes a single feed or site. The list is loaded once
// at process start and never mutated by the core.
type SourceConfig struct {
	Identifier     string `yaml:"identifier"`
	Name           string `yaml:"name"`
	URL            string `yaml:"url"`
	RSSURL         string `yaml:"rssUrl"`
	Mode           string `yaml:"mode"`
	CheckFrequency int    `yaml:"checkFrequencySeconds"`
	Active         bool   `yaml:"active"`
}

// SourceTable builds the domain source table from configuration.
func (c Config) SourceTable() []domain.Source {
	sources := make([]domain.Source, 0, len(c.Sources))
	for _, sc := range c.Sources {
		mode := domain.FetchMode(sc.Mode)
		if mode == "" {
			if sc.RSSURL != "" {
				mode = domain.ModeRSS
			} else {
				mode = domain.ModeWeb
			}
		}
		freq := time.Duration(sc.CheckFrequency) * time.Second
		if freq <= 0 {
			freq = 30 * time.Minute
		}
		sources = append(sources, domain.Source{
			Identifier:     sc.Identifier,
			Name:           sc.Name,
			URL:            sc.URL,
			RSSURL:         sc.RSSURL,
			Mode:           mode,
			CheckFrequency: freq,
			Active:         sc.Active,
			Health:         domain.HealthActive,
		})
	}
	return sources
}

// Load reads YAML configuration (if present) and applies environment
// overrides; missing or broken files fall back to defaults.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}
	return cfg
}

// Validate rejects configurations the orchestrator cannot run with.
func (c Config) Validate() error {
	seen := map[string]bool{}
	for i, sc := range c.Sources {
		if sc.Identifier == "" {
			return fmt.Errorf("source %d: identifier is required", i)
		}
		if seen[sc.Identifier] {
			return fmt.Errorf("source %q: duplicate identifier", sc.Identifier)
		}
		seen[sc.Identifier] = true

		target := sc.RSSURL
		if target == "" {
			target = sc.URL
		}
		if target == "" {
			return fmt.Errorf("source %q: url or rssUrl is required", sc.Identifier)
		}
		u, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", sc.Identifier, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", sc.Identifier, u.Scheme)
		}
		if sc.Mode != "" && sc.Mode != string(domain.ModeRSS) && sc.Mode != string(domain.ModeWeb) {
			return fmt.Errorf("source %q: unknown mode %q (valid: rss, web)", sc.Identifier, sc.Mode)
		}
	}
	if c.Ingest.SoftFailureThreshold > 0 && c.Ingest.HardFailureThreshold > 0 &&
		c.Ingest.SoftFailureThreshold >= c.Ingest.HardFailureThreshold {
		return fmt.Errorf("ingest: soft failure threshold must be below hard threshold")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}
	if override.Logging.MaxSizeMB > 0 {
		base.Logging.MaxSizeMB = override.Logging.MaxSizeMB
	}
	if override.Logging.MaxBackups > 0 {
		base.Logging.MaxBackups = override.Logging.MaxBackups
	}
	if override.Logging.MaxAgeDays > 0 {
		base.Logging.MaxAgeDays = override.Logging.MaxAgeDays
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}

	if override.Ingest.Workers > 0 {
		base.Ingest.Workers = override.Ingest.Workers
	}
	if override.Ingest.FetchTimeoutSeconds > 0 {
		base.Ingest.FetchTimeoutSeconds = override.Ingest.FetchTimeoutSeconds
	}
	if override.Ingest.RetryAttempts > 0 {
		base.Ingest.RetryAttempts = override.Ingest.RetryAttempts
	}
	if override.Ingest.RetryBackoffSeconds > 0 {
		base.Ingest.RetryBackoffSeconds = override.Ingest.RetryBackoffSeconds
	}
	if override.Ingest.SoftFailureThreshold > 0 {
		base.Ingest.SoftFailureThreshold = override.Ingest.SoftFailureThreshold
	}
	if override.Ingest.HardFailureThreshold > 0 {
		base.Ingest.HardFailureThreshold = override.Ingest.HardFailureThreshold
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{DSN: ""},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Scheduler: SchedulerConfig{CronExpression: "*/30 * * * *"},
		Ingest: IngestConfig{
			Workers:              4,
			FetchTimeoutSeconds:  30,
			RetryAttempts:        2,
			RetryBackoffSeconds:  2,
			SoftFailureThreshold: 3,
			HardFailureThreshold: 5,
		},
		Sources: []SourceConfig{
			{
				Identifier:     "microsoft-security-blog",
				Name:           "Microsoft Security Blog",
				URL:            "https://www.microsoft.com/en-us/security/blog",
				RSSURL:         "https://www.microsoft.com/en-us/security/blog/feed",
				Mode:           "rss",
				CheckFrequency: 1800,
				Active:         true,
			},
			{
				Identifier:     "crowdstrike-blog",
				Name:           "CrowdStrike Blog",
				URL:            "https://www.crowdstrike.com/blog",
				RSSURL:         "https://www.crowdstrike.com/blog/feed",
				Mode:           "rss",
				CheckFrequency: 1800,
				Active:         true,
			},
			{
				Identifier:     "thedfirreport",
				Name:           "The DFIR Report",
				URL:            "https://thedfirreport.com",
				RSSURL:         "https://thedfirreport.com/feed",
				Mode:           "rss",
				CheckFrequency: 3600,
				Active:         true,
			},
		},
	}
}
