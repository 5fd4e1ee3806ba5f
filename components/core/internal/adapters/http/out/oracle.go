package out

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// PriceOracle provides an interface for pricing deposited assets in USD at
// confirmation time.
//
//go:generate mockgen --destination=oracle.mock.go --package=out . PriceOracle
type PriceOracle interface {
	USDPrice(ctx context.Context, asset string) (decimal.Decimal, error)
}

// HTTPPriceOracle reads spot prices from an external price service.
type HTTPPriceOracle struct {
	httpBackend
}

// NewPriceOracle returns an HTTP price oracle client.
func NewPriceOracle(baseURL string, timeout time.Duration) *HTTPPriceOracle {
	return &HTTPPriceOracle{
		httpBackend: newHTTPBackend(baseURL, "", timeout),
	}
}

// USDPrice returns the USD spot price of one whole unit of asset.
func (o *HTTPPriceOracle) USDPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	var resp struct {
		Asset string          `json:"asset"`
		USD   decimal.Decimal `json:"usd"`
	}

	if err := o.doJSON(ctx, http.MethodGet, "/v1/prices/"+url.PathEscape(asset), nil, &resp); err != nil {
		return decimal.Zero, err
	}

	return resp.USD, nil
}

// StaticPriceOracle serves fixed rates; it backs tests and stablecoin-only setups.
type StaticPriceOracle struct {
	Rates map[string]decimal.Decimal
}

// USDPrice returns the configured rate, zero when the asset is unknown.
func (o *StaticPriceOracle) USDPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	rate, ok := o.Rates[asset]
	if !ok {
		return decimal.Zero, nil
	}

	return rate, nil
}
