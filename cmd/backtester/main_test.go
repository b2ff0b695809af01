package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"strategylab/internal/script"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr error
	}{
		{"should default to backtest", nil, options{mode: modeBacktest}, nil},
		{"should read every flag", []string{"-config", "c.yaml", "-mode", "serve", "-script", "s.strat", "-trades", "t.csv"},
			options{configPath: "c.yaml", mode: modeServe, scriptPath: "s.strat", tradesPath: "t.csv"}, nil},
		{"should reject an unknown mode", []string{"-mode", "live"}, options{}, errUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBundledStrategiesParse(t *testing.T) {
	paths, err := filepath.Glob("../../strategies/*.strat")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no strategies found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := script.Parse(string(src)); err != nil {
				t.Error(err)
			}
		})
	}
}

const weekdayCSV = `date,open,high,low,close,volume
2024-01-01,9,12,8,10,1000
2024-01-02,9,12,8,10,1000
2024-01-03,9,12,8,10,1000
2024-01-04,12,15,11,13,1000
2024-01-05,13,16,12,14,1000
2024-01-08,8,11,7,9,1000
2024-01-09,7,10,6,8,1000
2024-01-10,11,14,10,12,1000
2024-01-11,10,13,9,11,1000
2024-01-12,6,9,5,7,1000
2024-01-15,8,11,7,9,1000
2024-01-16,14,17,13,15,1000
2024-01-17,15,18,14,16,1000
`

const crossoverScript = `up = crossover(close(), sma(3))
down = crossover(sma(3), close())
if up:
    createOrder("enter", true, 10)
elif down:
    if position() > 0:
        createOrder("exit", false, 10)
`

func TestRun_BacktestFromCSV(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	files := map[string]string{
		"data/TEST.csv": weekdayCSV,
		"cross.strat":   crossoverScript,
		"config.yaml":   "symbol: TEST\nstart: 2024-01-03\nend: 2024-01-31\nlookback: 2\nlog:\n  level: error\n",
	}
	for name, body := range files {
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", "config.yaml", "-script", "cross.strat", "-trades", "trades.csv"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Net Profit:            -20.00") {
		t.Errorf("unexpected report:\n%s", out.String())
	}
	if _, err := os.Stat("trades.csv"); err != nil {
		t.Errorf("trades file: %v", err)
	}
}
