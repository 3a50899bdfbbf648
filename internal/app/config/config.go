package config

import "time"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (YAML, ENV, defaults)
// and ensures the app layer doesn't depend on infrastructure details.
type Config interface {
	// Core settings
	Home() string     // Base directory for Fablestep (FABLESTEP_HOME)
	BookPath() string // Path to the gamebook YAML file (FABLESTEP_BOOK)
	DBPath() string   // SQLite database path, empty for in-memory (FABLESTEP_DB)

	// Capability engine
	Engine() string      // Capability engine: "table" or "llm" (FABLESTEP_ENGINE)
	AgentAPIKey() string // LLM API key (FABLESTEP_AGENT_API_KEY)
	AgentAPIURL() string // LLM API endpoint (FABLESTEP_AGENT_API_URL)
	AgentModel() string  // LLM model identifier (FABLESTEP_AGENT_MODEL)

	// Orchestration limits
	EvalTimeoutSec() int        // Evaluator timeout in seconds (FABLESTEP_EVAL_TIMEOUT_SEC)
	EvalTimeout() time.Duration // Evaluator timeout as Duration
	MaxCommitRetries() int      // Bounded retries on commit conflict (FABLESTEP_MAX_COMMIT_RETRIES)

	// Cache policy
	CacheMaxEntries() int    // Maximum cached evaluations (FABLESTEP_CACHE_MAX_ENTRIES)
	CacheTTL() time.Duration // Cached evaluation lifetime (FABLESTEP_CACHE_TTL_SEC)

	// Transcript archive
	ArchiveDir() string    // Local transcript archive directory (FABLESTEP_ARCHIVE_DIR)
	ArchiveBucket() string // S3 bucket for transcript archive, empty to disable (FABLESTEP_ARCHIVE_BUCKET)

	// Logging
	StderrLevel() string // Stderr log level (FABLESTEP_STDERR_LEVEL)

	// Metadata
	ConfigSource() string // Source of configuration: "yaml", "env", or "default"
	SettingPath() string  // Path to setting.yml if loaded from file
}

// AppConfig is the concrete implementation of Config interface.
// It holds all configuration values loaded from various sources.
type AppConfig struct {
	home     string
	bookPath string
	dbPath   string

	engine      string
	agentAPIKey string
	agentAPIURL string
	agentModel  string

	evalTimeoutSec   int
	maxCommitRetries int

	cacheMaxEntries int
	cacheTTLSec     int

	archiveDir    string
	archiveBucket string

	stderrLevel string

	configSource string
	settingPath  string
}

// Home returns the base directory for Fablestep
func (c *AppConfig) Home() string {
	return c.home
}

// BookPath returns the gamebook YAML path
func (c *AppConfig) BookPath() string {
	return c.bookPath
}

// DBPath returns the SQLite database path
func (c *AppConfig) DBPath() string {
	return c.dbPath
}

// Engine returns the capability engine name
func (c *AppConfig) Engine() string {
	return c.engine
}

// AgentAPIKey returns the LLM API key
func (c *AppConfig) AgentAPIKey() string {
	return c.agentAPIKey
}

// AgentAPIURL returns the LLM API endpoint
func (c *AppConfig) AgentAPIURL() string {
	return c.agentAPIURL
}

// AgentModel returns the LLM model identifier
func (c *AppConfig) AgentModel() string {
	return c.agentModel
}

// EvalTimeoutSec returns the evaluator timeout in seconds
func (c *AppConfig) EvalTimeoutSec() int {
	return c.evalTimeoutSec
}

// EvalTimeout returns the evaluator timeout as a Duration
func (c *AppConfig) EvalTimeout() time.Duration {
	return time.Duration(c.evalTimeoutSec) * time.Second
}

// MaxCommitRetries returns the bounded retry count for commit conflicts
func (c *AppConfig) MaxCommitRetries() int {
	return c.maxCommitRetries
}

// CacheMaxEntries returns the maximum number of cached evaluations
func (c *AppConfig) CacheMaxEntries() int {
	return c.cacheMaxEntries
}

// CacheTTL returns the cached evaluation lifetime
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.cacheTTLSec) * time.Second
}

// ArchiveDir returns the local transcript archive directory
func (c *AppConfig) ArchiveDir() string {
	return c.archiveDir
}

// ArchiveBucket returns the S3 transcript archive bucket
func (c *AppConfig) ArchiveBucket() string {
	return c.archiveBucket
}

// StderrLevel returns the stderr log level
func (c *AppConfig) StderrLevel() string {
	return c.stderrLevel
}

// ConfigSource returns the source of configuration
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the path to setting.yml if loaded from file
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}
