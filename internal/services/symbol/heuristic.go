package symbol

import (
	"regexp"
	"strings"

	"SignalDesk/internal/domain/models"
)

const (
	exchangeCrypto   = "BINANCE"
	exchangeShanghai = "SSE"
	exchangeShenzhen = "SZSE"
	exchangeDefault  = "NASDAQ"
)

type cryptoAsset struct {
	base string
	name string
}

var cryptoAliases = map[string]cryptoAsset{
	"BTC":      {"BTC", "Bitcoin"},
	"BITCOIN":  {"BTC", "Bitcoin"},
	"ETH":      {"ETH", "Ethereum"},
	"ETHEREUM": {"ETH", "Ethereum"},
	"SOL":      {"SOL", "Solana"},
	"SOLANA":   {"SOL", "Solana"},
	"BNB":      {"BNB", "BNB"},
	"XRP":      {"XRP", "XRP"},
	"RIPPLE":   {"XRP", "XRP"},
	"DOGE":     {"DOGE", "Dogecoin"},
	"DOGECOIN": {"DOGE", "Dogecoin"},
	"ADA":      {"ADA", "Cardano"},
	"CARDANO":  {"ADA", "Cardano"},
}

var (
	sixDigits  = regexp.MustCompile(`^\d{6}$`)
	alphaShort = regexp.MustCompile(`^[A-Z]{1,5}$`)
	qualified  = regexp.MustCompile(`^[A-Z]+:[A-Z0-9.\-]+$`)
	nonTicker  = regexp.MustCompile(`[^A-Z0-9.]`)
)

// Normalize uppercases and trims a query; it is also the cache key.
func Normalize(query string) string {
	return strings.ToUpper(strings.TrimSpace(query))
}

// Heuristic resolves a query without any network call. Price is always 0.
func Heuristic(query string) models.SymbolResolution {
	q := Normalize(query)
	res := models.SymbolResolution{Name: strings.TrimSpace(query), Source: SourceHeuristic}

	if qualified.MatchString(q) {
		res.Ticker = q
		return res
	}
	if asset, ok := crypto(q); ok {
		res.Ticker = exchangeCrypto + ":" + asset.base + "USDT"
		res.Name = asset.name
		return res
	}

	switch {
	case sixDigits.MatchString(q):
		exchange := exchangeShenzhen
		if strings.HasPrefix(q, "6") {
			exchange = exchangeShanghai
		}
		res.Ticker = exchange + ":" + q
	case alphaShort.MatchString(q):
		res.Ticker = exchangeDefault + ":" + q
	default:
		res.Ticker = nonTicker.ReplaceAllString(q, "")
		if res.Ticker == "" {
			res.Ticker = q
		}
	}
	return res
}

// crypto matches an alias, also when quoted against USDT or USD ("BTCUSDT", "ETH-USD").
func crypto(q string) (cryptoAsset, bool) {
	for _, candidate := range []string{q, strings.TrimSuffix(q, "USDT"), strings.TrimSuffix(q, "-USD")} {
		if asset, ok := cryptoAliases[candidate]; ok {
			return asset, true
		}
	}
	return cryptoAsset{}, false
}
