package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"paperquant/internal/model"
)

const defaultEastmoneyBaseURL = "https://push2.eastmoney.com"

var codeRE = regexp.MustCompile(`^\d{6}$`)

// SecID is Eastmoney's instrument identifier: "{market}.{code}" where market
// 1 = Shanghai, 0 = Shenzhen.
type SecID struct {
	Market int
	Code   string
}

// Param renders the secid query parameter.
func (s SecID) Param() string { return fmt.Sprintf("%d.%s", s.Market, s.Code) }

// ParseAShareSymbol accepts "600000.SH"/"000001.SZ", "sh600000"/"sz000001",
// or a bare 6-digit code (6xxxxx → Shanghai, otherwise Shenzhen).
func ParseAShareSymbol(symbol string) (SecID, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	if len(s) == 8 && (strings.HasPrefix(s, "SH") || strings.HasPrefix(s, "SZ")) && codeRE.MatchString(s[2:]) {
		market := 0
		if strings.HasPrefix(s, "SH") {
			market = 1
		}
		return SecID{Market: market, Code: s[2:]}, nil
	}

	if len(s) == 9 && (strings.HasSuffix(s, ".SH") || strings.HasSuffix(s, ".SZ")) && codeRE.MatchString(s[:6]) {
		market := 0
		if strings.HasSuffix(s, ".SH") {
			market = 1
		}
		return SecID{Market: market, Code: s[:6]}, nil
	}

	if codeRE.MatchString(s) {
		market := 0
		if strings.HasPrefix(s, "6") {
			market = 1
		}
		return SecID{Market: market, Code: s}, nil
	}

	return SecID{}, fmt.Errorf("unsupported A-share symbol format: %q", symbol)
}

// Eastmoney fetches real-time A-share quotes from the unofficial Eastmoney
// push API. No token or login is required.
type Eastmoney struct {
	baseURL string
	client  *http.Client
}

// NewEastmoney creates the quote provider.
func NewEastmoney(cfg EastmoneyConfig) *Eastmoney {
	base := cfg.BaseURL
	if base == "" {
		base = defaultEastmoneyBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Eastmoney{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// quoteResponse is the subset of /api/qt/stock/get we read: f43 is the latest
// price, sometimes as a scaled integer (price * 100).
type quoteResponse struct {
	Data *struct {
		F43 *json.Number `json:"f43"`
	} `json:"data"`
}

// GetTick fetches one quote for the symbol.
func (e *Eastmoney) GetTick(ctx context.Context, symbol string) (model.Tick, error) {
	sec, err := ParseAShareSymbol(symbol)
	if err != nil {
		return model.Tick{}, err
	}

	q := url.Values{}
	q.Set("secid", sec.Param())
	q.Set("fields", "f43,f58,f57,f59,f170,f44,f45,f46,f47,f48")
	reqURL := e.baseURL + "/api/qt/stock/get?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Tick{}, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return model.Tick{}, fmt.Errorf("eastmoney fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Tick{}, fmt.Errorf("eastmoney fetch %s: status %d", symbol, resp.StatusCode)
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return model.Tick{}, fmt.Errorf("eastmoney decode %s: %w", symbol, err)
	}
	if quote.Data == nil || quote.Data.F43 == nil {
		return model.Tick{}, fmt.Errorf("eastmoney quote %s: empty data", symbol)
	}

	raw, err := quote.Data.F43.Float64()
	if err != nil {
		return model.Tick{}, fmt.Errorf("eastmoney quote %s: bad price %q", symbol, quote.Data.F43.String())
	}
	return model.Tick{Symbol: symbol, TS: time.Now().UTC(), Price: normalizePrice(raw)}, nil
}

// normalizePrice undoes Eastmoney's scaled-integer encoding. A-share prices
// rarely exceed 10000, so anything above is assumed to be price*100.
func normalizePrice(v float64) float64 {
	if v > 10000 {
		return v / 100.0
	}
	return v
}
