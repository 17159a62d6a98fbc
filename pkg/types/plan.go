package types

// Plan is a static catalog entry loaded from configuration. It is read-only
// at runtime; the reconciler and the limit evaluator only ever look plans up.
type Plan struct {
	ID              string     `json:"id" mapstructure:"id"`
	Name            string     `json:"name" mapstructure:"name"`
	PriceCents      int64      `json:"price_cents" mapstructure:"price_cents"`
	Currency        string     `json:"currency" mapstructure:"currency"`
	ProviderPriceID string     `json:"provider_price_id" mapstructure:"provider_price_id"`
	Limits          PlanLimits `json:"limits" mapstructure:"limits"`
	Active          bool       `json:"active" mapstructure:"active"`
}
