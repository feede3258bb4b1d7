// internal/dapp/quote.go
package dapp

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/vibes-presale/internal/oracle"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
)

type Currency string

const (
	SOL  Currency = "SOL"
	USDC Currency = "USDC"
)

// Quote is the VIBES amount a purchase buys at the current tier.
type Quote struct {
	Currency     Currency
	Amount       float64
	TierPriceUSD float64
	SOLUSD       float64
	PriceSource  string
	Fallback     bool
	Vibes        decimal.Decimal
}

// Quote prices amount of currency against the live presale tier.
func (c *Client) Quote(ctx context.Context, currency Currency, amount float64) (*Quote, error) {
	presale, err := c.reader.Presale(ctx)
	if err != nil {
		return nil, err
	}
	if presale == nil {
		return nil, &program.PreconditionError{Account: "presale state", Reason: program.CannotInfer}
	}
	var price oracle.Price
	if currency == SOL {
		if price, err = c.SOLPrice(ctx); err != nil {
			return nil, err
		}
	}
	return quoteAt(presale, c.now(), currency, amount, price, c.opts.Decimals.VIBES)
}

func quoteAt(presale *program.PresaleState, now time.Time, currency Currency, amount float64, price oracle.Price, vibesDecimals uint8) (*Quote, error) {
	if err := positive("amount", amount); err != nil {
		return nil, err
	}
	tier, ok := presale.CurrentTier(now)
	if !ok || !oracle.Valid(tier.PriceUSD) {
		return nil, invalid("price schedule", "no tier with a positive price")
	}

	q := &Quote{Currency: currency, Amount: amount, TierPriceUSD: tier.PriceUSD}
	usd := decimal.NewFromFloat(amount)
	switch currency {
	case SOL:
		if !oracle.Valid(price.SOLUSD) {
			return nil, invalid("price", "SOL price unavailable")
		}
		q.SOLUSD, q.PriceSource, q.Fallback = price.SOLUSD, price.Source, price.Fallback
		usd = usd.Mul(decimal.NewFromFloat(price.SOLUSD))
	case USDC:
	default:
		return nil, fmt.Errorf("%w: currency %q", ErrFeatureDisabled, currency)
	}
	q.Vibes = usd.DivRound(decimal.NewFromFloat(tier.PriceUSD), int32(vibesDecimals)+4).Truncate(int32(vibesDecimals))
	return q, nil
}
