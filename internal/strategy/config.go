package strategy

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Default parameters of the Day 0 strategy.
const (
	DefaultPriceSpikePercent   = 6.0
	DefaultVolumeMultiplier    = 2.0
	DefaultVolumeSMAPeriod     = 20
	DefaultEntryPremiumPercent = 1.0
	DefaultMaxEntryDays        = 4
	DefaultStopLossPercent     = 2.0

	// DefaultDayOffset maps exchange timestamps onto IST calendar days.
	DefaultDayOffset = 5*time.Hour + 30*time.Minute
)

// alertCooldown is the number of indices skipped after an alert so that
// overlapping signals are never evaluated. The scan resumes at i+cooldown+1.
const alertCooldown = 5

// Config is the immutable parameter set passed into every engine operation.
type Config struct {
	PriceSpikePercent   float64       `yaml:"price_spike_percent"`
	VolumeMultiplier    float64       `yaml:"volume_multiplier" validate:"gte=0"`
	VolumeSMAPeriod     int           `yaml:"volume_sma_period" validate:"gte=1"`
	EntryPremiumPercent float64       `yaml:"entry_premium_percent" validate:"gt=-100"`
	MaxEntryDays        int           `yaml:"max_entry_days" validate:"gte=1"`
	StopLossPercent     float64       `yaml:"stop_loss_percent" validate:"gte=0,lt=100"`
	DayOffset           time.Duration `yaml:"day_offset"`
}

// DefaultConfig returns the parameters the strategy was designed with.
func DefaultConfig() Config {
	return Config{
		PriceSpikePercent:   DefaultPriceSpikePercent,
		VolumeMultiplier:    DefaultVolumeMultiplier,
		VolumeSMAPeriod:     DefaultVolumeSMAPeriod,
		EntryPremiumPercent: DefaultEntryPremiumPercent,
		MaxEntryDays:        DefaultMaxEntryDays,
		StopLossPercent:     DefaultStopLossPercent,
		DayOffset:           DefaultDayOffset,
	}
}

var validate = validator.New()

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
