// Package oracle fetches the SOL/USD price from public endpoints in
// priority order, falling back to a fixed price when all of them fail.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FallbackSOLUSD is used when every endpoint fails.
const FallbackSOLUSD = 150.0

var (
	ErrNoPrice      = errors.New("no usable price in response")
	ErrInvalidPrice = errors.New("price must be greater than zero")
)

// Endpoint is one price source and the JSON path of its price field.
type Endpoint struct {
	Name string
	URL  string
	Path []interface{}
}

// DefaultEndpoints are tried in this order.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Name: "CoinGecko", URL: "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd", Path: []interface{}{"solana", "usd"}},
		{Name: "CoinCap", URL: "https://api.coincap.io/v2/assets/solana", Path: []interface{}{"data", "priceUsd"}},
		{Name: "Binance", URL: "https://api.binance.com/api/v3/ticker/price?symbol=SOLUSDT", Path: []interface{}{"price"}},
	}
}

// Price is a quote and where it came from.
type Price struct {
	SOLUSD    float64
	Source    string
	Fallback  bool
	FetchedAt time.Time
}

type Config struct {
	Endpoints []Endpoint
	Timeout   time.Duration
	// CacheTTL reuses the last live price; zero disables caching.
	CacheTTL time.Duration
	Fallback float64
}

// Oracle queries endpoints sequentially; the first positive price wins.
type Oracle struct {
	httpClient *http.Client
	config     Config
	logger     *zap.Logger

	mu    sync.Mutex
	last  *Price
	group singleflight.Group
}

func New(config Config, logger *zap.Logger) *Oracle {
	if len(config.Endpoints) == 0 {
		config.Endpoints = DefaultEndpoints()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Fallback <= 0 {
		config.Fallback = FallbackSOLUSD
	}
	return &Oracle{
		httpClient: &http.Client{},
		config:     config,
		logger:     logger.Named("oracle"),
	}
}

// SOLPrice never fails: when no endpoint answers it returns the fallback
// price with Fallback set. Only a cancelled ctx produces an error.
// Concurrent callers share one query.
func (o *Oracle) SOLPrice(ctx context.Context) (Price, error) {
	if p, ok := o.cached(); ok {
		return p, nil
	}
	v, err, _ := o.group.Do("SOLUSD", func() (interface{}, error) {
		return o.query(ctx)
	})
	if err != nil {
		return Price{}, err
	}
	return v.(Price), nil
}

func (o *Oracle) query(ctx context.Context) (Price, error) {
	for _, ep := range o.config.Endpoints {
		price, err := o.fetch(ctx, ep)
		if err != nil {
			if ctx.Err() != nil {
				return Price{}, ctx.Err()
			}
			o.logger.Warn("Price source failed", zap.String("source", ep.Name), zap.Error(err))
			continue
		}
		p := Price{SOLUSD: price, Source: ep.Name, FetchedAt: time.Now()}
		o.store(p)
		o.logger.Debug("SOL price", zap.String("source", ep.Name), zap.Float64("usd", price))
		return p, nil
	}

	o.logger.Warn("All price sources failed, using fallback", zap.Float64("usd", o.config.Fallback))
	return Price{SOLUSD: o.config.Fallback, Source: "fallback", Fallback: true, FetchedAt: time.Now()}, nil
}

func (o *Oracle) cached() (Price, bool) {
	if o.config.CacheTTL <= 0 {
		return Price{}, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil || time.Since(o.last.FetchedAt) > o.config.CacheTTL {
		return Price{}, false
	}
	return *o.last, true
}

func (o *Oracle) store(p Price) {
	o.mu.Lock()
	o.last = &p
	o.mu.Unlock()
}

func (o *Oracle) fetch(ctx context.Context, ep Endpoint) (float64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ep.URL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	return extract(body, ep.Path)
}

// extract reads a number or numeric string at path.
func extract(body []byte, path []interface{}) (float64, error) {
	v := jsoniter.Get(body, path...)
	if v.LastError() != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoPrice, v.LastError())
	}

	var price float64
	switch v.ValueType() {
	case jsoniter.NumberValue:
		price = v.ToFloat64()
	case jsoniter.StringValue:
		f, err := strconv.ParseFloat(v.ToString(), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNoPrice, v.ToString())
		}
		price = f
	default:
		return 0, ErrNoPrice
	}
	if !Valid(price) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	return price, nil
}

// Valid reports whether p is a usable USD price: positive and finite.
func Valid(p float64) bool {
	return p > 0 && !math.IsInf(p, 1)
}

// VibesPerSOL is how many VIBES one SOL buys at tierPriceUSD.
func VibesPerSOL(solUSD, tierPriceUSD float64) (decimal.Decimal, error) {
	if !Valid(solUSD) || !Valid(tierPriceUSD) {
		return decimal.Zero, ErrInvalidPrice
	}
	return decimal.NewFromFloat(solUSD).Div(decimal.NewFromFloat(tierPriceUSD)), nil
}
