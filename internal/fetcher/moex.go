package fetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"CandleScout/internal/model"
)

// MaxPageRows is the server-side row cap of one candle response. A page of
// exactly this size means more history exists beyond what was returned.
const MaxPageRows = 500

// Column lists of the ticker-list endpoint; requested explicitly via the
// *.columns query parameters and validated on every fetch.
var (
	SecurityColumns   = []string{"SECID"}
	MarketdataColumns = []string{"ISSUECAPITALIZATION"}
)

// Client wraps the HTTP client and venue settings for market-data requests.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Venue   *time.Location // exchange timezone of bar timestamps
	Display *time.Location // timezone for first/last-bar metadata
	Timeout time.Duration  // aggregate budget for one fetch batch
}

// NewClient creates a market-data client with optional proxy support.
func NewClient(baseURL, proxyURL string, venue, display *time.Location, timeout time.Duration) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		HTTP:    &http.Client{Transport: transport},
		BaseURL: baseURL,
		Venue:   venue,
		Display: display,
		Timeout: timeout,
	}
}

// CandleURL builds the candle-history request for one security. A zero
// lookback omits the 'from' parameter; interval 0 omits 'interval'.
// iss.reverse=true asks for rows newest-first, so responses are parsed with
// Reversed set.
func (c *Client) CandleURL(engine, market, ticker string, lookback time.Duration, interval int, now time.Time) string {
	params := "?iss.meta=off&iss.reverse=true"
	if lookback > 0 {
		from := now.In(c.Venue).Add(-lookback).Format("2006-01-02_15:04:05")
		params += "&from=" + from
	}
	if interval != 0 {
		params += fmt.Sprintf("&interval=%d", interval)
	}
	return fmt.Sprintf("%s/iss/engines/%s/markets/%s/securities/%s/candles.json%s",
		c.BaseURL, engine, market, ticker, params)
}

// TickerListURL builds the security-list request for one market.
func (c *Client) TickerListURL(engine, market string) string {
	return fmt.Sprintf("%s/iss/engines/%s/markets/%s/securities.json"+
		"?iss.meta=off&securities.columns=SECID&marketdata.columns=ISSUECAPITALIZATION",
		c.BaseURL, engine, market)
}

// FetchCandles downloads all URLs concurrently under the client timeout.
func (c *Client) FetchCandles(urls []string) []Result[CandlePage] {
	parser := CandleParser{Venue: c.Venue, Display: c.Display, Reversed: true}
	return FetchMany(c.HTTP, urls, c.Timeout, parser)
}

// FetchTickers downloads the ticker list of one market.
func (c *Client) FetchTickers(engine, market string) (TickerList, error) {
	u := c.TickerListURL(engine, market)
	results := FetchMany(c.HTTP, []string{u}, c.Timeout, TickerParser{})
	r := results[0]
	if r.Erroneous() {
		if r.Err != "" {
			return TickerList{}, fmt.Errorf("fetch tickers: %s", r.Err)
		}
		return TickerList{}, fmt.Errorf("fetch tickers: status %d", r.Status)
	}
	return r.Payload, nil
}

// CandlePage is the normalized payload of one candle response.
type CandlePage struct {
	Bars     []model.Bar
	FirstBar time.Time // display timezone
	LastBar  time.Time
	Complete bool // false when the page hit MaxPageRows, more history exists
}

// CandleParser validates candle payloads and extracts CandlePages.
// Reversed indicates the request asked for rows newest-first.
type CandleParser struct {
	Venue    *time.Location
	Display  *time.Location
	Reversed bool
}

// Parse checks, in order: the candles object exists, carries no error
// field, has non-empty columns and data, the column order matches the
// expected schema exactly, and the first row has the expected width.
func (p CandleParser) Parse(body []byte) (CandlePage, error) {
	var zero CandlePage
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	rawCandles, ok := doc["candles"]
	if !ok {
		return zero, errors.New("no 'candles' field in response")
	}
	var candles map[string]json.RawMessage
	if err := json.Unmarshal(rawCandles, &candles); err != nil {
		return zero, errors.New("'candles' field is not an object")
	}
	if err := embeddedError(candles); err != nil {
		return zero, err
	}
	cols, data, err := columnsAndData(candles)
	if err != nil {
		return zero, err
	}
	if !slices.Equal(cols, model.CandleColumns) {
		return zero, errors.New("order of columns has changed in response")
	}
	if len(data[0]) != len(model.CandleColumns) {
		return zero, errors.New("data format has changed")
	}

	if p.Reversed {
		slices.Reverse(data)
	}
	bars := make([]model.Bar, len(data))
	for i, row := range data {
		b, err := rowToBar(row)
		if err != nil {
			return zero, err
		}
		bars[i] = b
	}

	first, err := time.ParseInLocation(model.DateLayout, bars[0].Begin, p.Venue)
	if err != nil {
		return zero, fmt.Errorf("parse first bar time: %w", err)
	}
	last, err := time.ParseInLocation(model.DateLayout, bars[len(bars)-1].End, p.Venue)
	if err != nil {
		return zero, fmt.Errorf("parse last bar time: %w", err)
	}
	return CandlePage{
		Bars:     bars,
		FirstBar: first.In(p.Display),
		LastBar:  last.In(p.Display),
		Complete: len(data) != MaxPageRows,
	}, nil
}

func rowToBar(row []any) (model.Bar, error) {
	var b model.Bar
	if len(row) != len(model.CandleColumns) {
		return b, errors.New("data format has changed")
	}
	nums := [6]*float64{&b.Open, &b.Close, &b.High, &b.Low, &b.Value, &b.Volume}
	for i, dst := range nums {
		v, ok := row[i].(float64)
		if !ok {
			return b, errors.New("data format has changed")
		}
		*dst = v
	}
	var ok bool
	if b.Begin, ok = row[model.ColBegin].(string); !ok {
		return b, errors.New("data format has changed")
	}
	if b.End, ok = row[model.ColEnd].(string); !ok {
		return b, errors.New("data format has changed")
	}
	return b, nil
}

// TickerList pairs each security ticker with its capitalization.
type TickerList struct {
	Tickers []string
	Caps    []float64
}

// TickerParser validates ticker-list payloads and extracts TickerLists.
type TickerParser struct{}

func (TickerParser) Parse(body []byte) (TickerList, error) {
	var zero TickerList
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	rawSec, okS := doc["securities"]
	rawMkt, okM := doc["marketdata"]
	if !okS || !okM {
		return zero, errors.New("no 'securities' or / and 'marketdata' field in response")
	}
	var sec, mkt map[string]json.RawMessage
	if err := json.Unmarshal(rawSec, &sec); err != nil {
		return zero, errors.New("'securities' field is not an object")
	}
	if err := json.Unmarshal(rawMkt, &mkt); err != nil {
		return zero, errors.New("'marketdata' field is not an object")
	}
	for _, obj := range []map[string]json.RawMessage{sec, mkt} {
		if err := embeddedError(obj); err != nil {
			return zero, err
		}
	}
	secCols, secData, err := columnsAndData(sec)
	if err != nil {
		return zero, err
	}
	mktCols, mktData, err := columnsAndData(mkt)
	if err != nil {
		return zero, err
	}
	if !slices.Equal(secCols, SecurityColumns) || !slices.Equal(mktCols, MarketdataColumns) {
		return zero, errors.New("order of columns has changed in response")
	}

	tickers := make([]string, len(secData))
	for i, row := range secData {
		t, ok := row[0].(string)
		if !ok {
			return zero, errors.New("data format has changed")
		}
		tickers[i] = t
	}
	caps := make([]float64, len(mktData))
	for i, row := range mktData {
		// capitalization may be null for suspended securities
		if row[0] == nil {
			continue
		}
		c, ok := row[0].(float64)
		if !ok {
			return zero, errors.New("data format has changed")
		}
		caps[i] = c
	}
	return TickerList{Tickers: tickers, Caps: caps}, nil
}

func embeddedError(obj map[string]json.RawMessage) error {
	raw, ok := obj["error"]
	if !ok {
		return nil
	}
	var msg string
	if json.Unmarshal(raw, &msg) == nil && msg != "" {
		return errors.New(msg)
	}
	return errors.New("there's 'error' field in response")
}

func columnsAndData(obj map[string]json.RawMessage) ([]string, [][]any, error) {
	rawCols, okC := obj["columns"]
	rawData, okD := obj["data"]
	if !okC || !okD {
		return nil, nil, errors.New("no 'columns' or / and 'data' fields in response")
	}
	var cols []string
	if err := json.Unmarshal(rawCols, &cols); err != nil || len(cols) == 0 {
		return nil, nil, errors.New("order of columns has changed in response")
	}
	var data [][]any
	if err := json.Unmarshal(rawData, &data); err != nil || len(data) == 0 {
		return nil, nil, errors.New("no data")
	}
	if len(data[0]) == 0 {
		return nil, nil, errors.New("data format has changed")
	}
	return cols, data, nil
}
