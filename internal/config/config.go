package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ignite/health-surveillance/internal/analytics"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig      `yaml:"server"`
	Database      DatabaseConfig    `yaml:"database"`
	Redis         RedisConfig       `yaml:"redis"`
	RateLimit     RateLimitConfig   `yaml:"rate_limit"`
	Analytics     AnalyticsConfig   `yaml:"analytics"`
	Risk          RiskConfig        `yaml:"risk"`
	Leaderboard   LeaderboardConfig `yaml:"leaderboard"`
	Trend         TrendConfig       `yaml:"trend"`
	DistrictsFile string            `yaml:"districts_file"`
	Snapshot      SnapshotConfig    `yaml:"snapshot"`
	Metrics       MetricsConfig     `yaml:"metrics"`
	LogLevel      string            `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	return c.Host
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// DatabaseConfig points at the PostgreSQL record store.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig is optional; without it rate limiting and the snapshot lock
// fall back to their Redis-less behaviour.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// RateLimitConfig holds the per-client API rate limit
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// AnalyticsConfig holds engine ceilings and timeouts
type AnalyticsConfig struct {
	Timezone                string `yaml:"timezone"`
	MaxLookbackDays         int    `yaml:"max_lookback_days"`
	MaxOffsetDays           int    `yaml:"max_offset_days"`
	MaxLeaderboardRangeDays int    `yaml:"max_leaderboard_range_days"`
	DefaultRangeDays        int    `yaml:"default_range_days"`
	ResolverCacheCapacity   int    `yaml:"resolver_cache_capacity"`
	TalukSampleCap          int    `yaml:"taluk_sample_cap"`
	VillageSampleCap        int    `yaml:"village_sample_cap"`
	QueryTimeoutMs          int    `yaml:"query_timeout_ms"`
	SlowQueryWarnMs         int    `yaml:"slow_query_warn_ms"`
	// FuzzyMaxDistance is the largest accepted edit distance; negative
	// disables fuzzy matching.
	FuzzyMaxDistance int `yaml:"fuzzy_max_distance"`
	MaxRecords       int `yaml:"max_records"`
}

// QueryTimeout returns the record fetch timeout as a duration
func (c AnalyticsConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMs) * time.Millisecond
}

// SlowQueryWarn returns the slow fetch threshold as a duration
func (c AnalyticsConfig) SlowQueryWarn() time.Duration {
	return time.Duration(c.SlowQueryWarnMs) * time.Millisecond
}

// RiskConfig holds heatmap classification thresholds
type RiskConfig struct {
	CriticalActiveCases int `yaml:"critical_active_cases"`
	CriticalPercent     int `yaml:"critical_percent"`
	ObserveActiveCases  int `yaml:"observe_active_cases"`
	ObservePercent      int `yaml:"observe_percent"`
}

// LeaderboardConfig holds leaderboard caps and status thresholds
type LeaderboardConfig struct {
	Limit               int `yaml:"limit"`
	RecentPatientCap    int `yaml:"recent_patient_cap"`
	LatestAdmissionsCap int `yaml:"latest_admissions_cap"`
	NewCaseDays         int `yaml:"new_case_days"`
	CriticalTotal       int `yaml:"critical_total"`
	CriticalContagious  int `yaml:"critical_contagious"`
	CriticalNew         int `yaml:"critical_new"`
	ModerateTotal       int `yaml:"moderate_total"`
	ModerateNew         int `yaml:"moderate_new"`
}

// TrendConfig holds how many disease series the charts show
type TrendConfig struct {
	TopSeries    int `yaml:"top_series"`
	TopBarSeries int `yaml:"top_bar_series"`
}

// SnapshotConfig holds the S3 export settings
type SnapshotConfig struct {
	Enabled        bool   `yaml:"enabled"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	Prefix         string `yaml:"prefix"`
	RangeDays      int    `yaml:"range_days"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LockTTL returns the snapshot lock TTL as a duration
func (c SnapshotConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 120
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Analytics defaults
	a := &cfg.Analytics
	if a.Timezone == "" {
		a.Timezone = "Asia/Kolkata"
	}
	if a.MaxLookbackDays == 0 {
		a.MaxLookbackDays = 365
	}
	if a.MaxOffsetDays == 0 {
		a.MaxOffsetDays = 365
	}
	if a.MaxLeaderboardRangeDays == 0 {
		a.MaxLeaderboardRangeDays = 90
	}
	if a.DefaultRangeDays == 0 {
		a.DefaultRangeDays = 30
	}
	if a.ResolverCacheCapacity == 0 {
		a.ResolverCacheCapacity = 256
	}
	if a.TalukSampleCap == 0 {
		a.TalukSampleCap = 5
	}
	if a.VillageSampleCap == 0 {
		a.VillageSampleCap = 3
	}
	if a.QueryTimeoutMs == 0 {
		a.QueryTimeoutMs = 5000
	}
	if a.SlowQueryWarnMs == 0 {
		a.SlowQueryWarnMs = 1500
	}
	if a.FuzzyMaxDistance == 0 {
		a.FuzzyMaxDistance = 2
	}
	if a.MaxRecords == 0 {
		a.MaxRecords = 50000
	}

	// Risk defaults
	if cfg.Risk.CriticalActiveCases == 0 {
		cfg.Risk.CriticalActiveCases = 60
	}
	if cfg.Risk.CriticalPercent == 0 {
		cfg.Risk.CriticalPercent = 30
	}
	if cfg.Risk.ObserveActiveCases == 0 {
		cfg.Risk.ObserveActiveCases = 25
	}
	if cfg.Risk.ObservePercent == 0 {
		cfg.Risk.ObservePercent = 10
	}

	// Leaderboard defaults
	l := &cfg.Leaderboard
	if l.Limit == 0 {
		l.Limit = 8
	}
	if l.RecentPatientCap == 0 {
		l.RecentPatientCap = 5
	}
	if l.LatestAdmissionsCap == 0 {
		l.LatestAdmissionsCap = 10
	}
	if l.NewCaseDays == 0 {
		l.NewCaseDays = 2
	}
	if l.CriticalTotal == 0 {
		l.CriticalTotal = 80
	}
	if l.CriticalContagious == 0 {
		l.CriticalContagious = 12
	}
	if l.CriticalNew == 0 {
		l.CriticalNew = 25
	}
	if l.ModerateTotal == 0 {
		l.ModerateTotal = 30
	}
	if l.ModerateNew == 0 {
		l.ModerateNew = 10
	}

	if cfg.Trend.TopSeries == 0 {
		cfg.Trend.TopSeries = 2
	}
	if cfg.Trend.TopBarSeries == 0 {
		cfg.Trend.TopBarSeries = 4
	}

	// Snapshot defaults
	if cfg.Snapshot.S3Region == "" {
		cfg.Snapshot.S3Region = "ap-south-1"
	}
	if cfg.Snapshot.Prefix == "" {
		cfg.Snapshot.Prefix = "snapshots"
	}
	if cfg.Snapshot.RangeDays == 0 {
		cfg.Snapshot.RangeDays = 30
	}
	if cfg.Snapshot.LockTTLSeconds == 0 {
		cfg.Snapshot.LockTTLSeconds = 300
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// LoadFromEnv loads config from the YAML file and then applies .env and
// environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	// Snapshot overrides
	if v := os.Getenv("SNAPSHOT_S3_BUCKET"); v != "" {
		cfg.Snapshot.S3Bucket = v
		cfg.Snapshot.Enabled = true
	}
	if v := os.Getenv("SNAPSHOT_S3_REGION"); v != "" {
		cfg.Snapshot.S3Region = v
	}

	return cfg, nil
}

// AnalyticsSettings converts the config into engine settings. The timezone
// must be a valid IANA name.
func (cfg *Config) AnalyticsSettings() (analytics.Settings, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Analytics.Timezone))
	if err != nil {
		return analytics.Settings{}, fmt.Errorf("analytics timezone %q: %w", cfg.Analytics.Timezone, err)
	}

	s := analytics.DefaultSettings()
	s.Location = loc
	s.MaxLookbackDays = cfg.Analytics.MaxLookbackDays
	s.MaxOffsetDays = cfg.Analytics.MaxOffsetDays
	s.MaxLeaderboardRangeDays = cfg.Analytics.MaxLeaderboardRangeDays
	s.DefaultRangeDays = cfg.Analytics.DefaultRangeDays
	s.QueryTimeout = cfg.Analytics.QueryTimeout()
	s.SlowQueryWarn = cfg.Analytics.SlowQueryWarn()
	s.MaxRecords = cfg.Analytics.MaxRecords
	s.Hierarchy = analytics.HierarchyCaps{
		TalukSamples:   cfg.Analytics.TalukSampleCap,
		VillageSamples: cfg.Analytics.VillageSampleCap,
	}
	s.Risk = analytics.RiskThresholds{
		CriticalActiveCases: cfg.Risk.CriticalActiveCases,
		CriticalPercent:     cfg.Risk.CriticalPercent,
		ObserveActiveCases:  cfg.Risk.ObserveActiveCases,
		ObservePercent:      cfg.Risk.ObservePercent,
	}
	s.Leaderboard = analytics.LeaderboardSettings{
		Limit:               cfg.Leaderboard.Limit,
		RecentPatientCap:    cfg.Leaderboard.RecentPatientCap,
		LatestAdmissionsCap: cfg.Leaderboard.LatestAdmissionsCap,
		NewCaseDays:         cfg.Leaderboard.NewCaseDays,
		CriticalTotal:       cfg.Leaderboard.CriticalTotal,
		CriticalContagious:  cfg.Leaderboard.CriticalContagious,
		CriticalNew:         cfg.Leaderboard.CriticalNew,
		ModerateTotal:       cfg.Leaderboard.ModerateTotal,
		ModerateNew:         cfg.Leaderboard.ModerateNew,
	}
	s.TopTrendSeries = cfg.Trend.TopSeries
	s.TopBarSeries = cfg.Trend.TopBarSeries
	return s, nil
}
