package finnhub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	xhttp "SignalDesk/pkg/http"
	"SignalDesk/pkg/logger"
)

// ErrNoQuote is returned when the upstream answered but had no price and nothing was cached.
var ErrNoQuote = errors.New("finnhub: no quote")

// Client implements QuoteSource over the Finnhub REST /quote endpoint.
// The last good price per symbol is remembered and returned as stale when a refresh fails.
type Client struct {
	apiKey   string
	baseURL  string
	deadline time.Duration
	http     *xhttp.Client
	log      *logger.Logger

	mu   sync.RWMutex
	last map[string]float64
}

var _ drepo.QuoteSource = (*Client)(nil)

// New creates the quote client. deadline bounds each refresh.
func New(apiKey, baseURL string, deadline time.Duration, l *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	if deadline <= 0 {
		deadline = 3 * time.Second
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		deadline: deadline,
		http:     xhttp.NewClient(xhttp.WithTimeout(deadline)),
		log:      l.Named("finnhub"),
		last:     make(map[string]float64),
	}
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Quote fetches the latest price for an exchange-qualified ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (models.Quote, error) {
	symbol := Symbol(ticker)
	if symbol == "" {
		return models.Quote{}, fmt.Errorf("finnhub: empty ticker")
	}

	price, err := c.fetch(ctx, symbol)
	if err == nil {
		c.mu.Lock()
		c.last[symbol] = price
		c.mu.Unlock()
		return models.Quote{Symbol: ticker, Price: price}, nil
	}

	c.mu.RLock()
	cached, ok := c.last[symbol]
	c.mu.RUnlock()
	if ok {
		c.log.Warn("quote refresh failed, serving last known price",
			logger.String("symbol", symbol),
			logger.Error(err),
		)
		return models.Quote{Symbol: ticker, Price: cached, Stale: true}, nil
	}
	return models.Quote{}, err
}

func (c *Client) fetch(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	switch {
	case resp.Current > 0:
		return resp.Current, nil
	case resp.PreviousClose > 0:
		return resp.PreviousClose, nil
	}
	return 0, ErrNoQuote
}

// Symbol maps an exchange-qualified ticker to Finnhub's notation.
// US listings drop the exchange, China A-shares take a suffix, crypto stays qualified.
func Symbol(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	exchange, code, ok := strings.Cut(t, ":")
	if !ok {
		return t
	}
	switch exchange {
	case "NASDAQ", "NYSE", "AMEX", "ARCA":
		return code
	case "SSE":
		return code + ".SS"
	case "SZSE":
		return code + ".SZ"
	}
	return t
}
