package fetcher

import (
	"strings"
	"testing"
	"time"
)

const candleBody = `{
	"candles": {
		"columns": ["open","close","high","low","value","volume","begin","end"],
		"data": [
			[110.0, 112.0, 113.0, 109.0, 1000.0, 10.0, "2024-01-10 11:00:00", "2024-01-10 11:59:59"],
			[100.0, 110.0, 111.0, 99.0, 2000.0, 20.0, "2024-01-10 10:00:00", "2024-01-10 10:59:59"]
		]
	}
}`

func candleParser() CandleParser {
	return CandleParser{Venue: time.UTC, Display: time.UTC, Reversed: true}
}

func TestCandleParser_ReversedPage(t *testing.T) {
	page, err := candleParser().Parse([]byte(candleBody))
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Bars) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(page.Bars))
	}
	// rows arrive newest-first and must come out chronological
	if page.Bars[0].Open != 100 || page.Bars[1].Open != 110 {
		t.Errorf("bars not reordered: opens %v, %v", page.Bars[0].Open, page.Bars[1].Open)
	}
	if got := page.FirstBar.Format("2006-01-02 15:04:05"); got != "2024-01-10 10:00:00" {
		t.Errorf("FirstBar = %s", got)
	}
	if got := page.LastBar.Format("2006-01-02 15:04:05"); got != "2024-01-10 11:59:59" {
		t.Errorf("LastBar = %s", got)
	}
	if !page.Complete {
		t.Error("a page below the row cap must be complete")
	}
}

func TestCandleParser_Validation(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"not json",
			`<html>`,
			"decode response",
		},
		{
			"missing candles",
			`{"history": {}}`,
			"no 'candles' field",
		},
		{
			"embedded error",
			`{"candles": {"error": "security not found"}}`,
			"security not found",
		},
		{
			"missing data",
			`{"candles": {"columns": ["open"]}}`,
			"no 'columns' or / and 'data' fields",
		},
		{
			"empty data",
			`{"candles": {"columns": ["open"], "data": []}}`,
			"no data",
		},
		{
			"column order changed",
			`{"candles": {"columns": ["close","open","high","low","value","volume","begin","end"],
				"data": [[1.0, 2.0, 3.0, 4.0, 5.0, 6.0, "2024-01-10 10:00:00", "2024-01-10 10:59:59"]]}}`,
			"order of columns has changed",
		},
		{
			"row type changed",
			`{"candles": {"columns": ["open","close","high","low","value","volume","begin","end"],
				"data": [["1.0", 2.0, 3.0, 4.0, 5.0, 6.0, "2024-01-10 10:00:00", "2024-01-10 10:59:59"]]}}`,
			"data format has changed",
		},
	}
	for _, c := range cases {
		_, err := candleParser().Parse([]byte(c.body))
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.wantErr) {
			t.Errorf("%s: err = %q, want it to contain %q", c.name, err, c.wantErr)
		}
	}
}

func TestTickerParser(t *testing.T) {
	body := `{
		"securities": {"columns": ["SECID"], "data": [["SBER"], ["GAZP"], ["YNDX"]]},
		"marketdata": {"columns": ["ISSUECAPITALIZATION"], "data": [[5000.0], [null], [3000.0]]}
	}`
	list, err := TickerParser{}.Parse([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Tickers) != 3 || list.Tickers[0] != "SBER" {
		t.Errorf("tickers = %v", list.Tickers)
	}
	// null capitalization is tolerated and reads as zero
	if list.Caps[0] != 5000 || list.Caps[1] != 0 || list.Caps[2] != 3000 {
		t.Errorf("caps = %v", list.Caps)
	}
}

func TestTickerParser_MissingBlock(t *testing.T) {
	_, err := TickerParser{}.Parse([]byte(`{"securities": {"columns": ["SECID"], "data": [["SBER"]]}}`))
	if err == nil || !strings.Contains(err.Error(), "'securities' or / and 'marketdata'") {
		t.Fatalf("err = %v, want missing-block error", err)
	}
}

func TestCandleURL(t *testing.T) {
	c := NewClient("http://example.org", "", time.UTC, time.UTC, time.Minute)
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	got := c.CandleURL("stock", "shares", "SBER", 24*time.Hour, 60, now)
	want := "http://example.org/iss/engines/stock/markets/shares/securities/SBER/candles.json" +
		"?iss.meta=off&iss.reverse=true&from=2024-01-09_12:00:00&interval=60"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	// zero lookback and interval omit their parameters
	got = c.CandleURL("stock", "shares", "SBER", 0, 0, now)
	want = "http://example.org/iss/engines/stock/markets/shares/securities/SBER/candles.json" +
		"?iss.meta=off&iss.reverse=true"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}
