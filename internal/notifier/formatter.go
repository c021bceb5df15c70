package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"StockRanker/internal/model"
)

// FormatRanking formats the leading stocks of a ranking.
func FormatRanking(ranked []model.AnalysedStock, n int, at time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>StockRanker</b> | %s\n\n", at.Format("2006-01-02")))
	if len(ranked) == 0 {
		b.WriteString("No stock had enough history to rank.\n")
		return b.String()
	}
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}
	for i, s := range ranked[:n] {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s\n", i+1, html.EscapeString(s.Symbol), html.EscapeString(s.Name)))
		b.WriteString(fmt.Sprintf("   score %s | growth %s | vol %s | unpred %s | 30d %s%%\n",
			num(s.Score, 3), num(s.GrowthScore, 1), num(s.Volatility, 2), num(s.Unpredictability, 3), signed(s.MonthChange)))
	}
	b.WriteString(fmt.Sprintf("\n%d of %d ranked stocks shown", n, len(ranked)))
	return b.String()
}

// FormatHistory summarises the raw history of one ticker.
func FormatHistory(s model.StockSeries) string {
	var b strings.Builder
	name := s.Name
	if name == "" {
		name = s.Symbol
	}
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> (%s)\n\n", html.EscapeString(name), html.EscapeString(s.Symbol)))
	if len(s.Data) == 0 {
		b.WriteString("No price history.")
		return b.String()
	}
	first, last := s.Data[0], s.Data[len(s.Data)-1]
	b.WriteString(fmt.Sprintf("Points: %d (%s to %s)\n", len(s.Data), first.Date, last.Date))
	b.WriteString(fmt.Sprintf("Last close: %.2f\n", last.Close))
	return b.String()
}

// FormatError formats a failed command or task.
func FormatError(task string, err error) string {
	return fmt.Sprintf("❌ %s failed: %s", task, html.EscapeString(err.Error()))
}

func num(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func signed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f", v)
}
