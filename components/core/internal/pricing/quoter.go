package pricing

import (
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/shopspring/decimal"
)

// RateComponent is one line of a quote breakdown.
type RateComponent struct {
	Label string          `json:"label"`
	USD   decimal.Decimal `json:"usd"`
}

// Quote is the deterministic price of one tool invocation.
type Quote struct {
	USD       decimal.Decimal `json:"usd_amount"`
	Credits   int64           `json:"credit_units"`
	Breakdown []RateComponent `json:"breakdown"`
}

// RateTable carries the published conversion rates the quoter prices against.
type RateTable struct {
	// CreditUSD is the published USD value of one credit unit.
	CreditUSD decimal.Decimal

	// GPUSecondUSD maps hardware classes to their per-second rate.
	GPUSecondUSD map[string]decimal.Decimal
}

// Quoter is a pure cost estimator: same tool, inputs and rates always yield the
// same quote.
type Quoter struct {
	rates RateTable
}

// NewQuoter builds a quoter over the given rate table.
func NewQuoter(rates RateTable) *Quoter {
	if rates.CreditUSD.IsZero() {
		rates.CreditUSD = decimal.NewFromFloat(0.001)
	}

	return &Quoter{rates: rates}
}

// CreditsFor converts a USD amount to credit units, rounding up so fractional
// cents never price below cost.
func (q *Quoter) CreditsFor(usd decimal.Decimal) int64 {
	return usd.Div(q.rates.CreditUSD).Ceil().IntPart()
}

// QuoteTool prices one invocation of tool with the given normalized inputs.
// avgRuntimeSeconds feeds the per-backend-second model; zero falls back to the
// tool's declared baseline.
func (q *Quoter) QuoteTool(tool *mmodel.Tool, inputs map[string]any, avgRuntimeSeconds float64) (*Quote, error) {
	switch tool.Cost.Kind {
	case cn.CostStatic:
		return q.quoteStatic(tool)
	case cn.CostPerUnit:
		return q.quotePerUnit(tool, inputs)
	case cn.CostPerBackendSecond:
		return q.quotePerSecond(tool, avgRuntimeSeconds)
	default:
		return nil, pkg.ValidateBusinessError(cn.ErrInternalServer, "CostModel")
	}
}

func (q *Quoter) quoteStatic(tool *mmodel.Tool) (*Quote, error) {
	usd := tool.Cost.AmountUSD

	return &Quote{
		USD:     usd,
		Credits: q.CreditsFor(usd),
		Breakdown: []RateComponent{
			{Label: "static", USD: usd},
		},
	}, nil
}

func (q *Quoter) quotePerUnit(tool *mmodel.Tool, inputs map[string]any) (*Quote, error) {
	units := decimal.NewFromInt(1)

	if tool.Cost.UnitField != "" {
		if raw, ok := inputs[tool.Cost.UnitField]; ok {
			units = toDecimal(raw, units)
		}
	}

	multiplier := decimal.NewFromInt(1)

	if tool.Cost.TierField != "" {
		if tier, ok := inputs[tool.Cost.TierField].(string); ok {
			if factor, ok := tool.Cost.TierMultipliers[tier]; ok {
				multiplier = decimal.NewFromFloat(factor)
			}
		}
	}

	base := tool.Cost.UnitRateUSD.Mul(units)
	usd := base.Mul(multiplier)

	return &Quote{
		USD:     usd,
		Credits: q.CreditsFor(usd),
		Breakdown: []RateComponent{
			{Label: "units", USD: base},
			{Label: "tier", USD: usd.Sub(base)},
		},
	}, nil
}

func (q *Quoter) quotePerSecond(tool *mmodel.Tool, avgRuntimeSeconds float64) (*Quote, error) {
	runtime := avgRuntimeSeconds
	if runtime <= 0 {
		runtime = tool.Cost.BaselineRuntimeSeconds
	}

	if runtime <= 0 {
		runtime = 30
	}

	rate, ok := q.rates.GPUSecondUSD[tool.Cost.HardwareClass]
	if !ok {
		return nil, pkg.ValidateBusinessError(cn.ErrInternalServer, "CostModel")
	}

	usd := rate.Mul(decimal.NewFromFloat(runtime))

	return &Quote{
		USD:     usd,
		Credits: q.CreditsFor(usd),
		Breakdown: []RateComponent{
			{Label: "gpu_seconds", USD: usd},
		},
	}, nil
}

// QuoteSum folds step quotes into a spell-level quote.
func QuoteSum(quotes []*Quote) *Quote {
	total := &Quote{USD: decimal.Zero}

	for i, quote := range quotes {
		total.USD = total.USD.Add(quote.USD)
		total.Credits += quote.Credits
		total.Breakdown = append(total.Breakdown, RateComponent{
			Label: "step_" + itoa(i),
			USD:   quote.USD,
		})
	}

	return total
}

// WithinTolerance reports whether charged stays inside quoted × (1 + tolerance).
func WithinTolerance(quoted, charged int64, tolerance float64) bool {
	limit := decimal.NewFromInt(quoted).Mul(decimal.NewFromFloat(1 + tolerance))

	return decimal.NewFromInt(charged).LessThanOrEqual(limit)
}

func toDecimal(v any, fallback decimal.Decimal) decimal.Decimal {
	switch value := v.(type) {
	case float64:
		return decimal.NewFromFloat(value)
	case int:
		return decimal.NewFromInt(int64(value))
	case int64:
		return decimal.NewFromInt(value)
	case string:
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}

	return fallback
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	return string(digits)
}
