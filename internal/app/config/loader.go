package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// setting mirrors the on-disk setting.yml layout
type setting struct {
	Home             string `yaml:"home"`
	Book             string `yaml:"book"`
	DB               string `yaml:"db"`
	Engine           string `yaml:"engine"`
	AgentAPIKey      string `yaml:"agent_api_key"`
	AgentAPIURL      string `yaml:"agent_api_url"`
	AgentModel       string `yaml:"agent_model"`
	EvalTimeoutSec   int    `yaml:"eval_timeout_sec"`
	MaxCommitRetries int    `yaml:"max_commit_retries"`
	CacheMaxEntries  int    `yaml:"cache_max_entries"`
	CacheTTLSec      int    `yaml:"cache_ttl_sec"`
	ArchiveDir       string `yaml:"archive_dir"`
	ArchiveBucket    string `yaml:"archive_bucket"`
	StderrLevel      string `yaml:"stderr_level"`
}

// Load builds the effective configuration.
// Precedence: defaults < setting.yml < FABLESTEP_* environment variables.
func Load() (Config, error) {
	cfg := defaults()

	path := settingPath(cfg.home)
	if loaded, err := applySetting(cfg, path); err != nil {
		return nil, err
	} else if loaded {
		cfg.configSource = "yaml"
		cfg.settingPath = path
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *AppConfig {
	home := os.Getenv("FABLESTEP_HOME")
	if home == "" {
		home = ".fablestep"
	}
	return &AppConfig{
		home:             home,
		bookPath:         filepath.Join(home, "book.yml"),
		dbPath:           filepath.Join(home, "fablestep.db"),
		engine:           "table",
		agentAPIURL:      "https://api.anthropic.com/v1/messages",
		agentModel:       "claude-3-5-sonnet-20241022",
		evalTimeoutSec:   60,
		maxCommitRetries: 3,
		cacheMaxEntries:  256,
		cacheTTLSec:      3600,
		archiveDir:       filepath.Join(home, "transcripts"),
		stderrLevel:      "info",
		configSource:     "default",
	}
}

func settingPath(home string) string {
	return filepath.Join(home, "setting.yml")
}

// applySetting overlays values from setting.yml when the file exists.
// A missing file is not an error; a malformed one is.
func applySetting(cfg *AppConfig, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read setting file: %w", err)
	}

	var s setting
	if err := yaml.Unmarshal(data, &s); err != nil {
		return false, fmt.Errorf("parse setting file %s: %w", path, err)
	}

	if s.Home != "" {
		cfg.home = s.Home
	}
	if s.Book != "" {
		cfg.bookPath = s.Book
	}
	if s.DB != "" {
		cfg.dbPath = s.DB
	}
	if s.Engine != "" {
		cfg.engine = s.Engine
	}
	if s.AgentAPIKey != "" {
		cfg.agentAPIKey = s.AgentAPIKey
	}
	if s.AgentAPIURL != "" {
		cfg.agentAPIURL = s.AgentAPIURL
	}
	if s.AgentModel != "" {
		cfg.agentModel = s.AgentModel
	}
	if s.EvalTimeoutSec > 0 {
		cfg.evalTimeoutSec = s.EvalTimeoutSec
	}
	if s.MaxCommitRetries > 0 {
		cfg.maxCommitRetries = s.MaxCommitRetries
	}
	if s.CacheMaxEntries > 0 {
		cfg.cacheMaxEntries = s.CacheMaxEntries
	}
	if s.CacheTTLSec > 0 {
		cfg.cacheTTLSec = s.CacheTTLSec
	}
	if s.ArchiveDir != "" {
		cfg.archiveDir = s.ArchiveDir
	}
	if s.ArchiveBucket != "" {
		cfg.archiveBucket = s.ArchiveBucket
	}
	if s.StderrLevel != "" {
		cfg.stderrLevel = s.StderrLevel
	}
	return true, nil
}

// applyEnv overlays FABLESTEP_* environment variables
func applyEnv(cfg *AppConfig) {
	overlaid := false

	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
			overlaid = true
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
				overlaid = true
			}
		}
	}

	setStr("FABLESTEP_HOME", &cfg.home)
	setStr("FABLESTEP_BOOK", &cfg.bookPath)
	setStr("FABLESTEP_DB", &cfg.dbPath)
	setStr("FABLESTEP_ENGINE", &cfg.engine)
	setStr("FABLESTEP_AGENT_API_KEY", &cfg.agentAPIKey)
	setStr("FABLESTEP_AGENT_API_URL", &cfg.agentAPIURL)
	setStr("FABLESTEP_AGENT_MODEL", &cfg.agentModel)
	setInt("FABLESTEP_EVAL_TIMEOUT_SEC", &cfg.evalTimeoutSec)
	setInt("FABLESTEP_MAX_COMMIT_RETRIES", &cfg.maxCommitRetries)
	setInt("FABLESTEP_CACHE_MAX_ENTRIES", &cfg.cacheMaxEntries)
	setInt("FABLESTEP_CACHE_TTL_SEC", &cfg.cacheTTLSec)
	setStr("FABLESTEP_ARCHIVE_DIR", &cfg.archiveDir)
	setStr("FABLESTEP_ARCHIVE_BUCKET", &cfg.archiveBucket)
	setStr("FABLESTEP_STDERR_LEVEL", &cfg.stderrLevel)

	if overlaid && cfg.configSource == "default" {
		cfg.configSource = "env"
	}
}
