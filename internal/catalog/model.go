package catalog

import "time"

// Prices are carried as integer micro-USD (1 USD = 1_000_000 micros) so credit
// derivation stays in integer arithmetic end to end.
const (
	// CreditBaseMicros is the USD value of one credit: $0.001.
	CreditBaseMicros int64 = 1000

	// DefaultMarginPct is the profit margin applied when deriving credit costs.
	DefaultMarginPct = 80

	// DefaultAvgTokens is the assumed tokens per request used for pricing.
	DefaultAvgTokens int64 = 2000
)

type ModelType string

const (
	ModelTypeText  ModelType = "text"
	ModelTypeImage ModelType = "image"
	ModelTypeVoice ModelType = "voice"
	ModelTypeVideo ModelType = "video"
)

// ModelTier maps quality buckets to concrete models so the underlying model can
// change without touching business logic or pricing.
type ModelTier string

const (
	TierCheap    ModelTier = "cheap"    // free tier orchestration
	TierStandard ModelTier = "standard" // paid tier default
	TierPremium  ModelTier = "premium"  // best quality
)

// ModelConfig describes a registered model with its real API pricing.
// CreditCost is derived once when the catalog is built; it is never set by hand.
type ModelConfig struct {
	ID          string
	Provider    string
	DisplayName string
	Type        ModelType
	Tier        ModelTier

	// Pricing in micro-USD; source of truth for the credit calculation.
	InputCostPer1M  int64 // per 1M input tokens
	OutputCostPer1M int64 // per 1M output tokens
	PerRequestCost  int64 // flat cost per request

	// Capabilities
	MaxContextTokens int
	SupportsTools    bool
	SupportsVision   bool

	// Lifecycle
	IsDefault      bool // default for its type+tier combination
	IsDeprecated   bool
	DeprecationDay *time.Time

	// Derived at catalog construction.
	CreditCost int64
}

// CalculateCreditCost derives a model's credit price from its API cost.
//
// Token cost assumes avgTokens per request; the margin is applied by dividing
// through (1 - margin). Zero-priced models still cost one credit. The result is
// non-decreasing in every cost input.
func CalculateCreditCost(m ModelConfig, marginPct int, avgTokens int64) int64 {
	tokenCost := (m.InputCostPer1M + m.OutputCostPer1M) * avgTokens / 1_000_000
	total := tokenCost + m.PerRequestCost

	if total == 0 {
		return 1
	}

	credits := total * 100 / (CreditBaseMicros * int64(100-marginPct))
	if credits < 1 {
		return 1
	}
	return credits
}
