package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// BillingConfig fixes the monetary tolerance and the activation rule. The
// activation threshold is deliberately explicit configuration, never
// inferred from data.
type BillingConfig struct {
	// Epsilon is the monetary rounding tolerance, e.g. "0.01" for one minor
	// unit.
	Epsilon string `yaml:"epsilon"`
	// ActivationPolicy: "first_payment" activates on any accepted payment,
	// "full_payment" only once the pending amount is cleared.
	ActivationPolicy string `yaml:"activation_policy"`
	// PaymentDueDays sets PaymentDueDate = purchase date + N days on new
	// purchases; 0 leaves the due date unset.
	PaymentDueDays int `yaml:"payment_due_days"`
}

type RenewalConfig struct {
	WindowDays          int `yaml:"window_days"`
	UrgentThresholdDays int `yaml:"urgent_threshold_days"`
}

type SchedulerConfig struct {
	ExpiryInterval         time.Duration `yaml:"expiry_interval"`
	RenewalInterval        time.Duration `yaml:"renewal_interval"`
	ReconciliationInterval time.Duration `yaml:"reconciliation_interval"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Billing   BillingConfig   `yaml:"billing"`
	Renewal   RenewalConfig   `yaml:"renewal"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	ActivationFirstPayment = "first_payment"
	ActivationFullPayment  = "full_payment"
)

// LoadConfig reads and validates the YAML config at path.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8090
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 48 * time.Hour
	}
	if cfg.Billing.Epsilon == "" {
		cfg.Billing.Epsilon = "0.01"
	}
	if cfg.Billing.ActivationPolicy == "" {
		cfg.Billing.ActivationPolicy = ActivationFirstPayment
	}
	if cfg.Renewal.WindowDays <= 0 {
		cfg.Renewal.WindowDays = 30
	}
	if cfg.Renewal.UrgentThresholdDays <= 0 {
		cfg.Renewal.UrgentThresholdDays = 7
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.Scheduler.RenewalInterval <= 0 {
		cfg.Scheduler.RenewalInterval = 6 * time.Hour
	}
	if cfg.Scheduler.ReconciliationInterval <= 0 {
		cfg.Scheduler.ReconciliationInterval = 24 * time.Hour
	}
}

func validate(cfg *Config) error {
	if _, err := decimal.NewFromString(cfg.Billing.Epsilon); err != nil {
		return fmt.Errorf("billing.epsilon %q: %w", cfg.Billing.Epsilon, err)
	}
	switch cfg.Billing.ActivationPolicy {
	case ActivationFirstPayment, ActivationFullPayment:
	default:
		return fmt.Errorf("billing.activation_policy must be %q or %q, got %q",
			ActivationFirstPayment, ActivationFullPayment, cfg.Billing.ActivationPolicy)
	}
	if cfg.Billing.PaymentDueDays < 0 {
		return fmt.Errorf("billing.payment_due_days must be >= 0")
	}
	return nil
}

// EpsilonDecimal returns the parsed tolerance. LoadConfig has already
// validated the string.
func (b BillingConfig) EpsilonDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(b.Epsilon)
	return d
}
