package config

import (
	"time"

	"github.com/gbl-data/leadpipe/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName       = "leadpipe"
	defaultServiceVersion    = "1.0.0"
	defaultServicePort       = 8080
	defaultBatchSize         = 50
	defaultDBHost            = "localhost"
	defaultDBPort            = 5432
	defaultDBUser            = "postgres"
	defaultDBName            = "leadpipe"
	defaultDBSSLMode         = "disable"
	defaultDBMaxConns        = 25
	defaultDBMaxIdleConns    = 5
	defaultAIModel           = "gpt-4o-mini"
	defaultAITimeoutSec      = 30
	defaultAIMaxRetries      = 2
	defaultSearchTimeoutSec  = 15
	defaultKeywordThreshold  = 0.5
	defaultOrgHurdle         = 0.7
	defaultNameHurdle        = 0.7
	defaultExternalCallRate  = 0.5 // calls per second between external requests
	defaultHighConfSkip      = 0.9
	defaultExcludedTLDSuffix = ".edu"
)

// Config holds all configuration for the lead pipeline service.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Database   DatabaseConfig   `yaml:"database"`
	AI         AIConfig         `yaml:"ai"`
	Search     SearchConfig     `yaml:"search"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    logger.Config    `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Port      int    `env:"LEADPIPE_PORT" yaml:"port"`
	Debug     bool   `env:"APP_DEBUG"     yaml:"debug"`
	BatchSize int    `yaml:"batch_size"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// AIConfig holds configuration for the AI classification/validation client.
type AIConfig struct {
	APIKey     string        `env:"OPENAI_API_KEY" yaml:"api_key"`
	Model      string        `env:"AI_MODEL"       yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Enabled    bool          `env:"AI_ENABLED"     yaml:"enabled"`
}

// SearchConfig holds configuration for the web search client.
type SearchConfig struct {
	APIKey   string        `env:"GOOGLE_API_KEY" yaml:"api_key"`
	EngineID string        `env:"GOOGLE_CSE_ID"  yaml:"engine_id"`
	Timeout  time.Duration `yaml:"timeout"`
	Enabled  bool          `env:"SEARCH_ENABLED" yaml:"enabled"`
}

// ScoringConfig holds classification and scoring thresholds.
type ScoringConfig struct {
	// KeywordConfidenceThreshold is the keyword confidence below which the
	// AI classifier is consulted.
	KeywordConfidenceThreshold float64 `yaml:"keyword_confidence_threshold"`
}

// ValidationConfig holds contact/organization admission settings.
type ValidationConfig struct {
	// OrgConfidenceHurdle and NameConfidenceHurdle are the defaults used
	// when no runtime settings row exists. Hurdles are re-read from the
	// settings store on every validation run.
	OrgConfidenceHurdle  float64 `yaml:"org_confidence_hurdle"`
	NameConfidenceHurdle float64 `yaml:"name_confidence_hurdle"`

	// HighConfidenceSkip is the confidence above which full validation is
	// skipped for organizations.
	HighConfidenceSkip float64 `yaml:"high_confidence_skip"`

	// ExcludedDomainSuffixes lists email/website suffixes rejected outright.
	ExcludedDomainSuffixes []string `yaml:"excluded_domain_suffixes"`

	// EnforceTargetStates rejects organizations outside TargetStates.
	// Off by default: discovery currently feeds organizations from all
	// states and they are filtered downstream.
	EnforceTargetStates bool     `env:"ENFORCE_TARGET_STATES" yaml:"enforce_target_states"`
	TargetStates        []string `yaml:"target_states"`

	// ExternalCallRate limits calls per second to the AI and search
	// collaborators during batch runs.
	ExternalCallRate float64 `yaml:"external_call_rate"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return loadWithDefaults[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setAIDefaults(&cfg.AI)
	setSearchDefaults(&cfg.Search)
	setScoringDefaults(&cfg.Scoring)
	setValidationDefaults(&cfg.Validation)
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.BatchSize == 0 {
		s.BatchSize = defaultBatchSize
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setAIDefaults(a *AIConfig) {
	if a.Model == "" {
		a.Model = defaultAIModel
	}
	if a.Timeout == 0 {
		a.Timeout = defaultAITimeoutSec * time.Second
	}
	if a.MaxRetries == 0 {
		a.MaxRetries = defaultAIMaxRetries
	}
}

func setSearchDefaults(s *SearchConfig) {
	if s.Timeout == 0 {
		s.Timeout = defaultSearchTimeoutSec * time.Second
	}
}

func setScoringDefaults(s *ScoringConfig) {
	if s.KeywordConfidenceThreshold == 0 {
		s.KeywordConfidenceThreshold = defaultKeywordThreshold
	}
}

func setValidationDefaults(v *ValidationConfig) {
	if v.OrgConfidenceHurdle == 0 {
		v.OrgConfidenceHurdle = defaultOrgHurdle
	}
	if v.NameConfidenceHurdle == 0 {
		v.NameConfidenceHurdle = defaultNameHurdle
	}
	if v.HighConfidenceSkip == 0 {
		v.HighConfidenceSkip = defaultHighConfSkip
	}
	if len(v.ExcludedDomainSuffixes) == 0 {
		v.ExcludedDomainSuffixes = []string{defaultExcludedTLDSuffix}
	}
	if len(v.TargetStates) == 0 {
		v.TargetStates = []string{"Utah", "Illinois", "Arizona", "Missouri", "New Mexico", "Nevada"}
	}
	if v.ExternalCallRate == 0 {
		v.ExternalCallRate = defaultExternalCallRate
	}
}
