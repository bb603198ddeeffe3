package performance

import (
	"encoding/csv"
	"fmt"
	"io"
)

// MetricRow is one metric-name/value pair of the flat export table.
type MetricRow struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FlatTable renders the result as a flat metric table for tabular export.
// Percentages carry two decimals and an explicit sign; metrics that could
// not be computed read "unavailable".
func (r *Result) FlatTable() []MetricRow {
	rows := []MetricRow{
		{Name: "total_return", Value: signedPct(r.TotalReturnPct)},
		{Name: "annualized_return", Value: signedPct(r.AnnualizedReturnPct)},
		{Name: "volatility", Value: signedPct(r.VolatilityPct)},
		{Name: "sharpe_ratio", Value: signed(r.SharpeRatio)},
		{Name: "max_drawdown", Value: signedPct(r.MaxDrawdownPct)},
		{Name: "beta", Value: optionalSigned(r.Beta)},
		{Name: "correlation", Value: optionalSigned(r.Correlation)},
		{Name: "initial_capital", Value: fmt.Sprintf("%.2f", r.InitialCapital)},
		{Name: "final_value", Value: fmt.Sprintf("%.2f", r.FinalValue)},
		{Name: "absolute_gain", Value: signed(r.AbsoluteGain)},
		{Name: "observations", Value: fmt.Sprintf("%d", r.Observations)},
	}
	return rows
}

// WriteCSV writes the flat table as CSV with a metric,value header.
func WriteCSV(w io.Writer, rows []MetricRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Name, row.Value}); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", row.Name, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func signedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func signed(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

func optionalSigned(v *float64) string {
	if v == nil {
		return "unavailable"
	}
	return signed(*v)
}
