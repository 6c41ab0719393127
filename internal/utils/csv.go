package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"tradeJournal/internal/domain"
)

var tradeCSVHeader = []string{
	"id", "opened_at", "closed_at", "symbol", "side", "size", "entry_price", "exit_price",
	"pnl", "take_profit", "stop_loss", "tier", "calculated_fee", "volume_contribution",
}

// WriteTradesToCSV writes trades to filename, replacing any existing file.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteTrades(file, trades); err != nil {
		return err
	}
	return file.Close()
}

// WriteTrades writes a header row followed by one row per trade. Absent values are empty cells.
func WriteTrades(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(tradeCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, t := range trades {
		closedAt := ""
		if t.ClosedAt != nil {
			closedAt = t.ClosedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			t.ID,
			t.OpenedAt.UTC().Format(time.RFC3339),
			closedAt,
			t.Symbol,
			string(t.Side),
			formatOptional(t.Size),
			formatOptional(t.EntryPrice),
			formatOptional(t.ExitPrice),
			formatOptional(t.PNL),
			formatOptional(t.TakeProfit),
			formatOptional(t.StopLoss),
			t.Tier,
			strconv.FormatFloat(t.CalculatedFee, 'f', -1, 64),
			strconv.FormatFloat(t.VolumeContribution, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write trade %s: %w", t.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
