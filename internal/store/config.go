package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"kite-alert-backtest/internal/strategy"
)

const (
	DefaultInstrumentsURL  = "https://api.kite.trade/instruments"
	DefaultInstrumentsPath = "data/instruments.csv"
	DefaultResultsDir      = "data/results"
)

var IST = time.FixedZone("IST", 19800)

type Config struct {
	Exchange      string          `yaml:"exchange" validate:"required"`
	Symbols       []string        `yaml:"symbols" validate:"required,min=1,dive,required"`
	StartDate     string          `yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string          `yaml:"end_date" validate:"required,datetime=2006-01-02"`
	OutputDir     string          `yaml:"output_dir" validate:"required"`
	RetentionDays int             `yaml:"retention_days" validate:"gte=0"`
	Concurrency   int             `yaml:"concurrency" validate:"gte=1"`
	Strategy      strategy.Config `yaml:"strategy"`
	Kite          KiteConfig      `yaml:"kite"`
}

type KiteConfig struct {
	APIKey          string        `yaml:"api_key"`
	APISecret       string        `yaml:"api_secret"`
	AccessToken     string        `yaml:"access_token"`
	InstrumentsPath string        `yaml:"instruments_path" validate:"required"`
	InstrumentsURL  string        `yaml:"instruments_url" validate:"required,url"`
	Delimiter       string        `yaml:"delimiter" validate:"oneof=auto tab comma"`
	MinDelay        time.Duration `yaml:"min_delay" validate:"gte=0"`
	RetryWait       time.Duration `yaml:"retry_wait" validate:"gte=0"`
	MaxRetries      int           `yaml:"max_retries" validate:"gte=0"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Exchange:      "NSE",
		Symbols:       []string{"BAJAJHCARE"},
		StartDate:     "2024-01-01",
		EndDate:       "2024-09-28",
		OutputDir:     DefaultResultsDir,
		RetentionDays: 30,
		Concurrency:   2,
		Strategy:      strategy.DefaultConfig(),
		Kite: KiteConfig{
			InstrumentsPath: DefaultInstrumentsPath,
			InstrumentsURL:  DefaultInstrumentsURL,
			Delimiter:       "auto",
			MinDelay:        600 * time.Millisecond,
			RetryWait:       10 * time.Second,
			MaxRetries:      5,
		},
	}
}

var validate = goValidator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	from, to, err := c.Range()
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("end_date %s is before start_date %s", c.EndDate, c.StartDate)
	}
	return c.Strategy.Validate()
}

// Range returns the backtest window as IST calendar days.
func (c *Config) Range() (from, to time.Time, err error) {
	from, err = time.ParseInLocation("2006-01-02", c.StartDate, IST)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	to, err = time.ParseInLocation("2006-01-02", c.EndDate, IST)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}
	return from, to, nil
}

// DelimiterRune maps the configured delimiter name to its rune; zero means
// detect from the file.
func (k KiteConfig) DelimiterRune() rune {
	switch k.Delimiter {
	case "comma":
		return ','
	case "tab":
		return '\t'
	}
	return 0
}

// LoadConfig reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("config env override failed: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// ApplyEnv overrides fields from the environment using the variable names
// the strategy has always been tuned with.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error

	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	float("PRICE_SPIKE_PERCENT", &c.Strategy.PriceSpikePercent)
	float("VOLUME_MULTIPLIER", &c.Strategy.VolumeMultiplier)
	integer("VOLUME_SMA_PERIOD", &c.Strategy.VolumeSMAPeriod)
	float("ENTRY_PREMIUM_PERCENT", &c.Strategy.EntryPremiumPercent)
	integer("MAX_ENTRY_DAYS", &c.Strategy.MaxEntryDays)
	float("STOP_LOSS_PERCENT", &c.Strategy.StopLossPercent)

	str("START_DATE", &c.StartDate)
	str("END_DATE", &c.EndDate)
	str("KITE_API_KEY", &c.Kite.APIKey)
	str("KITE_API_SECRET", &c.Kite.APISecret)
	str("KITE_ACCESS_TOKEN", &c.Kite.AccessToken)

	if v := strings.TrimSpace(getenv("SYMBOLS")); v != "" {
		c.Symbols = SplitSymbols(v)
	}

	return errors.Join(errs...)
}

// SplitSymbols parses a comma separated symbol list, upper-casing entries
// and dropping blanks.
func SplitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
