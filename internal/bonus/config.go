package bonus

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Configuration payload keys. Each bonus kind reads only the keys it
// needs; unknown or malformed values fall back to per-type defaults
// rather than erroring.
const (
	keyMultiplier   = "multiplier"
	keyReductionPct = "reduction_percent"
	keyDurationDays = "duration_days"
	keyCount        = "count"
	keyAmount       = "amount"
	keyThresholdCut = "threshold_reduction"
	keyLevel        = "level_increase"
	keyBadgeKey     = "badge_key"
)

const (
	defaultDurationDays = 7
	defaultUseCount     = 1
)

// Config is the typed form of an achievement's bonus payload, parsed
// once at grant time and snapshotted on the grant.
type Config struct {
	Multiplier   decimal.Decimal
	ReductionPct decimal.Decimal
	DurationDays int
	UseCount     int
	Amount       decimal.Decimal
	ThresholdCut decimal.Decimal
	Level        int
	BadgeKey     string
}

// ParseConfig interprets the flat key/value payload. All keys are
// optional; each bonus kind consumes only the fields relevant to it.
func ParseConfig(raw map[string]string) Config {
	return Config{
		Multiplier:   decimalValue(raw, keyMultiplier),
		ReductionPct: decimalValue(raw, keyReductionPct),
		DurationDays: intValue(raw, keyDurationDays, defaultDurationDays),
		UseCount:     intValue(raw, keyCount, defaultUseCount),
		Amount:       decimalValue(raw, keyAmount),
		ThresholdCut: decimalValue(raw, keyThresholdCut),
		Level:        intValue(raw, keyLevel, 0),
		BadgeKey:     raw[keyBadgeKey],
	}
}

func decimalValue(raw map[string]string, key string) decimal.Decimal {
	s, ok := raw[key]
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func intValue(raw map[string]string, key string, fallback int) int {
	s, ok := raw[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
