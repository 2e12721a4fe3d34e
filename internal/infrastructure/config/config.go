package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/crosscontext/crosscontext-backend/internal/domain/access"
	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// Config is loaded once at process start and treated as immutable for the
// process lifetime. Hot reload is out of scope.
type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`

	Server         ServerConfig             `koanf:"server"`
	Audit          AuditConfig              `koanf:"audit"`
	Consent        ConsentConfig            `koanf:"consent"`
	Redaction      RedactionConfig          `koanf:"redaction"`
	Classification classification.RuleSet   `koanf:"classification"`
	Clearance      access.PermissionTable   `koanf:"clearance"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `koanf:"burst_size" validate:"gt=0"`
}

type AuditConfig struct {
	// Path of the append-only JSONL audit log.
	Path string `koanf:"path" validate:"required"`
}

type ConsentConfig struct {
	// Timeout after which an unanswered request expires and counts as a
	// denial.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	// SweepInterval controls how often the coordinator expires stale
	// requests that nobody is awaiting.
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
}

type RedactionConfig struct {
	// PreserveContactSources lists source types whose structured
	// participant metadata feeds the email allow-list (organizers and
	// attendees stay contactable in briefing output).
	PreserveContactSources []string `koanf:"preserve_contact_sources"`
}

// Load reads defaults, then the optional YAML file at path, then CCX_
// environment overrides, and validates the result. Rule table errors are
// fatal here so a misconfigured service never starts.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := k.Load(file.Provider("configs/config.yaml"), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading configs/config.yaml: %w", err)
		}
	}

	if err := k.Load(env.Provider("CCX_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CCX_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints and the injected rule tables
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.NewRuleConfigError("config", "configuration failed validation").WithCause(err)
	}
	if err := c.Classification.Validate(); err != nil {
		return err
	}
	// Compiling the table surfaces unknown tiers and level names now
	// instead of on the first request.
	if _, err := access.NewController(c.Clearance); err != nil {
		return err
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 50,
				BurstSize:         100,
			},
		},
		Audit: AuditConfig{
			Path: "data/audit_log.jsonl",
		},
		Consent: ConsentConfig{
			Timeout:       5 * time.Minute,
			SweepInterval: 30 * time.Second,
		},
		Redaction: RedactionConfig{
			PreserveContactSources: []string{"calendar_event", "stakeholder"},
		},
		Classification: classification.RuleSet{
			HomeDomain: "agency.gov.sg",
			Restricted: classification.TierRules{
				Keywords:        []string{"nric", "disciplinary", "investigation", "medical", "personal data"},
				ContentPatterns: []string{`\b[STFG]\d{7}[A-Z]\b`},
				DomainGlobs:     []string{"external-contractor.com", "*.external-contractor.com", "medical.gov.sg"},
				PathPrefixes:    []string{"/hr/casework", "/legal/investigations"},
			},
			Confidential: classification.TierRules{
				Keywords:     []string{"budget", "procurement", "tender", "contract", "salary", "financial"},
				DomainGlobs:  []string{"vendor.com", "*.supplier.com", "contractor.gov.sg"},
				PathPrefixes: []string{"/finance", "/procurement"},
			},
		},
		Clearance: access.DefaultPermissionTable(),
	}
}
