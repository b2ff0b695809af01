package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"strategylab/internal/script"
	"strategylab/internal/series"
	"strategylab/types"
)

// mockSeries builds daily bars where open = close-1, high = close+2 and
// low = close-2.
func mockSeries(t *testing.T, closes ...float64) *series.Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		bars[i] = types.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   p.Sub(decimal.NewFromInt(1)),
			High:   p.Add(decimal.NewFromInt(2)),
			Low:    p.Sub(decimal.NewFromInt(2)),
			Close:  p,
			Volume: decimal.NewFromInt(1000),
		}
	}
	s, err := series.New("TEST", bars)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustParse(t *testing.T, src string) *script.Program {
	t.Helper()
	p, err := script.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

const crossoverScript = `
up = crossover(close(), sma(3))
down = crossover(sma(3), close())
if up:
    createOrder("enter", true, 10)
elif down:
    if position() > 0:
        createOrder("exit", false, 10)
`

var crossoverCloses = []float64{10, 10, 10, 13, 14, 9, 8, 12, 11, 7, 9, 15, 16}

func TestRun_Crossover(t *testing.T) {
	s := mockSeries(t, crossoverCloses...)
	res, err := Run(s, mustParse(t, crossoverScript), NewRunConfig(decimal.NewFromInt(10000), 2), nil)
	if err != nil {
		t.Fatal(err)
	}

	wantFills := []struct {
		bar   int
		side  types.Side
		price string
	}{
		{8, types.SideTypeBuy, "10"},
		{10, types.SideTypeSell, "8"},
	}
	if len(res.Fills) != len(wantFills) {
		t.Fatalf("got %d fills, want %d: %+v", len(res.Fills), len(wantFills), res.Fills)
	}
	for i, w := range wantFills {
		f := res.Fills[i]
		if f.BarIndex != w.bar || f.Side != w.side || !f.Price.Equal(decimal.RequireFromString(w.price)) {
			t.Errorf("fill %d = bar %d %s @ %s, want bar %d %s @ %s", i, f.BarIndex, f.Side, f.Price, w.bar, w.side, w.price)
		}
	}

	// bar 10 closes on its sma(3), so the rise on bar 11 comes from zero and
	// does not re-enter
	if len(res.Trades) != 1 || res.Trades[0].IsOpen() {
		t.Fatalf("trades = %+v, want one closed trade", res.Trades)
	}
	if !res.NetProfit.Equal(decimal.NewFromInt(-20)) {
		t.Errorf("NetProfit = %s, want -20", res.NetProfit)
	}
	if !res.GrossProfit.IsZero() || !res.GrossLoss.Equal(decimal.NewFromInt(20)) {
		t.Errorf("gross profit/loss = %s/%s, want 0/20", res.GrossProfit, res.GrossLoss)
	}
	if !res.OpenPnL.IsZero() {
		t.Errorf("OpenPnL = %s, want 0", res.OpenPnL)
	}

	wantCurve := []string{"10000", "10000", "10000", "10000", "10000", "10000", "10000", "9960", "9980", "9980", "9980"}
	if len(res.EquityCurve) != len(wantCurve) {
		t.Fatalf("equity curve has %d values, want %d", len(res.EquityCurve), len(wantCurve))
	}
	for i, w := range wantCurve {
		if !res.EquityCurve[i].Equal(decimal.RequireFromString(w)) {
			t.Errorf("equity[%d] = %s, want %s", i, res.EquityCurve[i], w)
		}
	}
	if !almostEqual(res.MaxDrawdown, -0.004) {
		t.Errorf("MaxDrawdown = %v, want -0.004", res.MaxDrawdown)
	}
	if !almostEqual(res.MaxRunUp, 20.0/9960.0) {
		t.Errorf("MaxRunUp = %v", res.MaxRunUp)
	}
	if res.FirstBar.Index != 2 || res.FinalBar.Index != 12 {
		t.Errorf("bars = %d..%d, want 2..12", res.FirstBar.Index, res.FinalBar.Index)
	}
	for _, o := range res.Orders {
		if o.Status != types.OrderFilled || !o.FillPrice.Valid {
			t.Errorf("order %d status %s", o.ID, o.Status)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	s := mockSeries(t, crossoverCloses...)
	program := mustParse(t, crossoverScript)
	cfg := NewRunConfig(decimal.NewFromInt(10000), 2)

	first, err := Run(s, program, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(s, program, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical runs produced different results")
	}
}

func TestRun_FlatSeriesPlacesNoOrders(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	bars := make([]types.Bar, len(closes))
	for i := range bars {
		p := decimal.NewFromInt(100)
		bars[i] = types.Bar{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i), Open: p, High: p, Low: p, Close: p}
	}
	s, err := series.New("FLAT", bars)
	if err != nil {
		t.Fatal(err)
	}
	program := mustParse(t, `
fast = sma(20)
slow = sma(50)
if crossover(fast, slow):
    createOrder("long", true, 100)
if crossover(slow, fast):
    createOrder("short", false, 100)
`)
	c := NewContext(s, program, NewRunConfig(decimal.NewFromInt(10000), 49), nil)
	if err := c.Step(49); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"fast", "slow"} {
		v, ok := c.evaluator.Lookup(name)
		if !ok {
			t.Fatalf("%s not bound", name)
		}
		n, ok := v.Unwrap().Number()
		if !ok || !n.Equal(decimal.NewFromInt(100)) {
			t.Errorf("%s = %s, want 100", name, v.Unwrap())
		}
	}
	if len(c.orders.orders) != 0 {
		t.Errorf("placed %d orders on a flat series", len(c.orders.orders))
	}
}

func TestRun_CancelAndExpire(t *testing.T) {
	s := mockSeries(t, 10, 11, 12, 13, 14)
	program := mustParse(t, `
cancelOrders("dip")
createLimitOrder("dip", true, 5, 1)
`)
	res, err := Run(s, program, NewRunConfig(decimal.NewFromInt(1000), 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Fills) != 0 {
		t.Fatalf("limit far below the market filled: %+v", res.Fills)
	}
	if len(res.Orders) != 5 {
		t.Fatalf("got %d orders, want 5", len(res.Orders))
	}
	for i, o := range res.Orders[:4] {
		if o.Status != types.OrderCancelled {
			t.Errorf("order %d status = %s, want cancelled", i, o.Status)
		}
	}
	if last := res.Orders[4]; last.Status != types.OrderExpired || last.OrderType != types.TypeLimit {
		t.Errorf("last order = %s %s, want expired limit", last.Status, last.OrderType)
	}
	if !res.NetProfit.IsZero() || res.ClosedTrades() != 0 {
		t.Errorf("unexpected profit %s over %d trades", res.NetProfit, res.ClosedTrades())
	}
}

func TestRun_StopOrderEntersOnBreakout(t *testing.T) {
	// highs are close+2: 12, 13, 17; the stop at 15 triggers on bar 2
	s := mockSeries(t, 10, 11, 15, 16)
	program := mustParse(t, `
if position() == 0:
    cancelOrders("breakout")
    createStopOrder("breakout", true, 1, 15)
`)
	res, err := Run(s, program, NewRunConfig(decimal.NewFromInt(1000), 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Fills) != 1 {
		t.Fatalf("fills = %+v, want one", res.Fills)
	}
	if f := res.Fills[0]; f.BarIndex != 2 || !f.Price.Equal(decimal.NewFromInt(15)) {
		t.Errorf("fill = bar %d @ %s, want bar 2 @ 15", f.BarIndex, f.Price)
	}
	// entered at the bar 2 open of 14, marked at the bar 3 open of 15
	if !res.OpenPnL.Equal(decimal.NewFromInt(1)) {
		t.Errorf("OpenPnL = %s, want 1", res.OpenPnL)
	}
}

func TestRun_Errors(t *testing.T) {
	s := mockSeries(t, 10, 11, 12, 13, 14)
	tests := []struct {
		name    string
		src     string
		start   int
		wantErr error
	}{
		{"zero window", "x = sma(0)", 2, ErrInvalidArgument},
		{"fractional window", "x = sma(2.5)", 2, ErrInvalidArgument},
		{"window longer than history", "x = sma(4)", 2, series.ErrInsufficientHistory},
		{"negative lookback", "x = close(-1)", 2, ErrInvalidArgument},
		{"lookback past first bar", "x = close(3)", 2, series.ErrInsufficientHistory},
		{"too many arguments", "x = close(1, 2)", 2, ErrInvalidArgument},
		{"crossover of a number", "x = crossover(1, close())", 2, ErrInvalidArgument},
		{"crossover of a bool indicator", "x = crossover(crossover(close(), sma(2)), close())", 2, ErrInvalidArgument},
		{"zero quantity", `createOrder("x", true, 0)`, 2, ErrInvalidArgument},
		{"label not a string", `createOrder(1, true, 1)`, 2, ErrInvalidArgument},
		{"side not a bool", `createOrder("x", 1, 1)`, 2, ErrInvalidArgument},
		{"negative limit", `createLimitOrder("x", true, 1, -5)`, 2, ErrInvalidArgument},
		{"void assignment", `x = createOrder("x", true, 1)`, 2, script.ErrVoidValue},
		{"unknown function", "x = rsi(14)", 2, script.ErrUnknownFunction},
		{"start outside series", "x = 1", 5, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(s, mustParse(t, tt.src), NewRunConfig(decimal.NewFromInt(1000), tt.start), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun_IndicatorsReuseCacheAcrossBars(t *testing.T) {
	s := mockSeries(t, 10, 11, 12, 13, 14, 15)
	program := mustParse(t, `
a = sma(2)
b = sma(2)
c = close(1)
`)
	c := NewContext(s, program, NewRunConfig(decimal.NewFromInt(1000), 1), nil)
	for i := 1; i < s.Len(); i++ {
		if err := c.Step(i); err != nil {
			t.Fatal(err)
		}
	}
	if c.cache.Len() != 2 {
		t.Errorf("cache holds %d accumulators, want 2", c.cache.Len())
	}
	v, _ := c.evaluator.Lookup("a")
	if n, _ := v.Unwrap().Number(); !n.Equal(decimal.RequireFromString("14.5")) {
		t.Errorf("sma(2) = %s, want 14.5", n)
	}
	v, _ = c.evaluator.Lookup("c")
	if n, _ := v.Unwrap().Number(); !n.Equal(decimal.NewFromInt(14)) {
		t.Errorf("close(1) = %s, want 14", n)
	}
}
