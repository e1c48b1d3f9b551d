// Package analysis renders human-facing summaries of optimization outcomes.
package analysis

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/rulegate/pkg/core"
)

// Summary aggregates a batch of optimization results for display
type Summary struct {
	Results []core.OptimizationResult
	Skipped int
	Errors  int
}

// Counts returns the PASS/FAIL tallies of the stored results
func (s Summary) Counts() (passed, failed int) {
	for _, result := range s.Results {
		if result.Verdict == core.VerdictPass {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// WriteTable renders one row per strategy plus a totals footer
func (s Summary) WriteTable(w io.Writer) error {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Strategy", "Category", "Symbol", "Verdict", "Trades", "Sharpe", "Drawdown", "Return", "Tries"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	for _, result := range s.Results {
		table.Append([]string{
			result.StrategyName,
			result.Category,
			result.Symbol,
			string(result.Verdict),
			formatTrades(result.TestReport),
			formatSharpe(result.TestReport),
			formatDrawdown(result.TestReport),
			formatReturn(result.TestReport),
			strconv.Itoa(result.TriesUsed),
		})
	}

	passed, failed := s.Counts()
	table.SetFooter([]string{
		"TOTAL", "", "",
		fmt.Sprintf("%d PASS / %d FAIL", passed, failed),
		"", "", "",
		fmt.Sprintf("%d ERROR", s.Errors),
		fmt.Sprintf("%d SKIP", s.Skipped),
	})
	table.Render()

	_, err := w.Write(buffer.Bytes())
	return err
}

// WriteReturnHistogram plots the distribution of per-trade returns across all
// held-out reports
func (s Summary) WriteReturnHistogram(w io.Writer) error {
	returns := make([]float64, 0)
	for _, result := range s.Results {
		if result.TestReport == nil {
			continue
		}
		for _, trade := range result.TestReport.Trades {
			if trade.EntryPrice > 0 && trade.Size > 0 {
				returns = append(returns, trade.PnL/(trade.EntryPrice*trade.Size)*100)
			}
		}
	}
	if len(returns) == 0 {
		_, err := fmt.Fprintln(w, "no trades to plot")
		return err
	}

	fmt.Fprintln(w, "------ HELD-OUT TRADE RETURNS (%) -------")
	hist := histogram.Hist(15, returns)
	if err := histogram.Fprint(w, hist, histogram.Linear(10)); err != nil {
		return err
	}

	interval := Bootstrap(returns, Mean, 10000, 0.95)
	_, err := fmt.Fprintf(w, "\nMEAN RETURN: %.2f%% (%.2f%% ~ %.2f%%, 95%% CI)\n",
		interval.Mean, interval.Lower, interval.Upper)
	return err
}

func formatTrades(report *core.PerformanceReport) string {
	if report == nil {
		return "-"
	}
	return strconv.Itoa(report.TradeCount)
}

func formatSharpe(report *core.PerformanceReport) string {
	if report == nil || report.Sharpe == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *report.Sharpe)
}

func formatDrawdown(report *core.PerformanceReport) string {
	if report == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f %%", report.MaxDrawdown*100)
}

func formatReturn(report *core.PerformanceReport) string {
	if report == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f %%", report.TotalReturn*100)
}
