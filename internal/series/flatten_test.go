package series

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"CandleScout/internal/model"
)

func hourlyBars(t *testing.T, start string, n int) []model.Bar {
	t.Helper()
	begin, err := time.ParseInLocation(model.DateLayout, start, time.UTC)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	bars := make([]model.Bar, n)
	for i := range bars {
		b := begin.Add(time.Duration(i) * time.Hour)
		bars[i] = model.Bar{
			Open: float64(10 + i), Close: float64(11 + i),
			High: float64(12 + i), Low: float64(9 + i),
			Begin: b.Format(model.DateLayout),
			End:   b.Add(59 * time.Minute).Format(model.DateLayout),
		}
	}
	return bars
}

func TestPrices_Rules(t *testing.T) {
	bars := []model.Bar{
		{Open: 1, Close: 2, High: 3, Low: 0.5},
		{Open: 4, Close: 5, High: 6, Low: 3.5},
	}
	cases := []struct {
		rule model.Rule
		want []float64
	}{
		{model.RuleOC, []float64{1, 2, 4, 5}},
		{model.RuleHL, []float64{3, 0.5, 6, 3.5}},
		{model.RuleLH, []float64{0.5, 3, 3.5, 6}},
	}
	for _, c := range cases {
		got, err := Prices(bars, c.rule)
		if err != nil {
			t.Fatalf("Prices(%s): %v", c.rule, err)
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Prices(%s) = %v, want %v", c.rule, got, c.want)
		}
	}
}

func TestPrices_InvalidRule(t *testing.T) {
	_, err := Prices([]model.Bar{{}}, model.Rule("XX"))
	if !errors.Is(err, model.ErrInvalidRule) {
		t.Fatalf("err = %v, want ErrInvalidRule", err)
	}
}

func TestDatetimes_NoWindow(t *testing.T) {
	bars := hourlyBars(t, "2024-01-10 00:00:00", 3)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dates, startInd, endInd, err := Datetimes(bars, start, nil, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if startInd != 0 || endInd != 6 {
		t.Errorf("indices = %d, %d, want 0, 6", startInd, endInd)
	}
	if len(dates) != 2*len(bars) {
		t.Errorf("len(dates) = %d, want %d", len(dates), 2*len(bars))
	}
}

// A window bound inside a bar must not split it: the start index rounds up
// to the next bar boundary and the result length stays even.
func TestDatetimes_StartInsideBar(t *testing.T) {
	bars := hourlyBars(t, "2024-01-10 00:00:00", 3)
	// after bar 0 begins but before it ends
	start := time.Date(2024, 1, 10, 0, 30, 0, 0, time.UTC)
	dates, startInd, _, err := Datetimes(bars, start, nil, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if startInd != 2 {
		t.Errorf("startInd = %d, want 2", startInd)
	}
	if len(dates)%2 != 0 {
		t.Errorf("len(dates) = %d, want even", len(dates))
	}
	if got := dates[0].Format(model.DateLayout); got != "2024-01-10 01:00:00" {
		t.Errorf("first date = %s, want bar 1 begin", got)
	}
}

func TestDatetimes_EndInsideBar(t *testing.T) {
	bars := hourlyBars(t, "2024-01-10 00:00:00", 3)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	// after bar 1 begins but before it ends: the bar is kept whole
	end := time.Date(2024, 1, 10, 1, 30, 0, 0, time.UTC)
	dates, _, endInd, err := Datetimes(bars, start, &end, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if endInd != 4 {
		t.Errorf("endInd = %d, want 4", endInd)
	}
	if len(dates) != 4 {
		t.Errorf("len(dates) = %d, want 4", len(dates))
	}
}

func TestDatetimes_EmptyWindow(t *testing.T) {
	bars := hourlyBars(t, "2024-01-10 00:00:00", 3)
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	dates, startInd, endInd, err := Datetimes(bars, start, nil, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 0 {
		t.Errorf("len(dates) = %d, want 0", len(dates))
	}
	if startInd != endInd {
		t.Errorf("indices = %d, %d, want equal", startInd, endInd)
	}
}

func TestDatetimes_BadTimestamp(t *testing.T) {
	bars := []model.Bar{{Begin: "garbage", End: "2024-01-10 01:00:00"}}
	_, _, _, err := Datetimes(bars, time.Time{}, nil, time.UTC)
	if err == nil {
		t.Fatal("expected parse error")
	}
}
