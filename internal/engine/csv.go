package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"strategylab/types"
)

// WriteTradesCSVFile writes trades to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes one row per trade. Open trades leave the exit
// columns empty.
func WriteTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)

	header := []string{
		"trade_id",
		"label",
		"direction",
		"quantity",
		"entry_date",
		"entry_open",
		"exit_date",
		"exit_open",
		"profit",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Label,
			string(t.Direction),
			strconv.FormatInt(t.Quantity, 10),
			t.EntryBar.Date.Format("2006-01-02"),
			t.EntryBar.Open.StringFixed(types.PriceDecimals),
			"",
			"",
			"",
		}
		if t.ExitBar != nil {
			record[6] = t.ExitBar.Date.Format("2006-01-02")
			record[7] = t.ExitBar.Open.StringFixed(types.PriceDecimals)
			record[8] = t.Profit().StringFixed(types.PriceDecimals)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFillsCSV writes the fill log in execution order.
func WriteFillsCSV(w io.Writer, fills []types.Fill) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"order_id", "label", "side", "type", "quantity", "price", "bar", "date"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range fills {
		record := []string{
			strconv.FormatInt(f.OrderID, 10),
			f.Label,
			string(f.Side),
			string(f.Type),
			strconv.FormatInt(f.Quantity, 10),
			f.Price.StringFixed(types.PriceDecimals),
			strconv.Itoa(f.BarIndex),
			f.Date.Format("2006-01-02"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
