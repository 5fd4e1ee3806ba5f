package pricing

import (
	"testing"

	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuoter() *Quoter {
	return NewQuoter(RateTable{
		CreditUSD: decimal.NewFromFloat(0.001),
		GPUSecondUSD: map[string]decimal.Decimal{
			"a10g": decimal.NewFromFloat(0.0005),
		},
	})
}

func TestQuoteStatic(t *testing.T) {
	quoter := testQuoter()

	tool := &mmodel.Tool{
		ID: "caption",
		Cost: mmodel.CostModel{
			Kind:      cn.CostStatic,
			AmountUSD: decimal.NewFromFloat(0.01),
		},
	}

	quote, err := quoter.QuoteTool(tool, nil, 0)
	require.NoError(t, err)

	assert.True(t, quote.USD.Equal(decimal.NewFromFloat(0.01)))
	assert.Equal(t, int64(10), quote.Credits)
	require.Len(t, quote.Breakdown, 1)
	assert.Equal(t, "static", quote.Breakdown[0].Label)
}

func TestQuotePerUnit(t *testing.T) {
	quoter := testQuoter()

	tool := &mmodel.Tool{
		ID: "make-image",
		Cost: mmodel.CostModel{
			Kind:        cn.CostPerUnit,
			UnitRateUSD: decimal.NewFromFloat(0.02),
			UnitField:   "count",
			TierField:   "size",
			TierMultipliers: map[string]float64{
				"512":  0.5,
				"1024": 1,
				"2048": 2.5,
			},
		},
	}

	quote, err := quoter.QuoteTool(tool, map[string]any{
		"count": float64(4),
		"size":  "2048",
	}, 0)
	require.NoError(t, err)

	// 4 units x 0.02 x 2.5 = 0.2 USD = 200 credits.
	assert.True(t, quote.USD.Equal(decimal.NewFromFloat(0.2)))
	assert.Equal(t, int64(200), quote.Credits)
}

func TestQuotePerUnitDefaultsToOneUnit(t *testing.T) {
	quoter := testQuoter()

	tool := &mmodel.Tool{
		ID: "make-image",
		Cost: mmodel.CostModel{
			Kind:        cn.CostPerUnit,
			UnitRateUSD: decimal.NewFromFloat(0.02),
			UnitField:   "count",
		},
	}

	quote, err := quoter.QuoteTool(tool, map[string]any{}, 0)
	require.NoError(t, err)

	assert.True(t, quote.USD.Equal(decimal.NewFromFloat(0.02)))
}

func TestQuotePerBackendSecond(t *testing.T) {
	quoter := testQuoter()

	tool := &mmodel.Tool{
		ID: "upscale",
		Cost: mmodel.CostModel{
			Kind:                   cn.CostPerBackendSecond,
			HardwareClass:          "a10g",
			BaselineRuntimeSeconds: 20,
		},
	}

	// With an observed average the average wins over the baseline.
	quote, err := quoter.QuoteTool(tool, nil, 40)
	require.NoError(t, err)
	assert.True(t, quote.USD.Equal(decimal.NewFromFloat(0.02)))

	// Without one the declared baseline seeds the estimate.
	quote, err = quoter.QuoteTool(tool, nil, 0)
	require.NoError(t, err)
	assert.True(t, quote.USD.Equal(decimal.NewFromFloat(0.01)))
}

func TestQuotePerBackendSecondUnknownHardwareClass(t *testing.T) {
	quoter := testQuoter()

	tool := &mmodel.Tool{
		ID: "upscale",
		Cost: mmodel.CostModel{
			Kind:          cn.CostPerBackendSecond,
			HardwareClass: "h100",
		},
	}

	_, err := quoter.QuoteTool(tool, nil, 10)
	assert.Error(t, err)
}

func TestCreditsForRoundsUp(t *testing.T) {
	quoter := testQuoter()

	assert.Equal(t, int64(1), quoter.CreditsFor(decimal.NewFromFloat(0.0001)))
	assert.Equal(t, int64(10), quoter.CreditsFor(decimal.NewFromFloat(0.01)))
	assert.Equal(t, int64(11), quoter.CreditsFor(decimal.NewFromFloat(0.0101)))
}

func TestQuoteSum(t *testing.T) {
	first := &Quote{USD: decimal.NewFromFloat(0.01), Credits: 10}
	second := &Quote{USD: decimal.NewFromFloat(0.02), Credits: 20}

	total := QuoteSum([]*Quote{first, second})

	assert.True(t, total.USD.Equal(decimal.NewFromFloat(0.03)))
	assert.Equal(t, int64(30), total.Credits)
	assert.Len(t, total.Breakdown, 2)
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(100, 100, 0.25))
	assert.True(t, WithinTolerance(100, 125, 0.25))
	assert.False(t, WithinTolerance(100, 126, 0.25))
	assert.True(t, WithinTolerance(100, 90, 0.25))
}
