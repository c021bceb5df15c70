// Package analysis derives the ranking metrics for each cached price series.
package analysis

import (
	"github.com/rs/zerolog"

	"StockRanker/internal/calculator"
	"StockRanker/internal/model"
)

// Options are the window sizes used by the engine.
type Options struct {
	MaxPoints    int `yaml:"max_points"`    // history kept per stock
	Window       int `yaml:"window"`        // trailing moving-average window
	MinAverage   int `yaml:"min_average"`   // stocks with a shorter average are dropped
	MonthSamples int `yaml:"month_samples"` // span of the month-over-month change
	YearSamples  int `yaml:"year_samples"`  // span of the year factor
	HalfWindow   int `yaml:"half_window"`   // half width of the centred average
}

// DefaultOptions returns roughly ten years of daily history, a 50-day
// average and a 101-day centred window.
func DefaultOptions() Options {
	return Options{
		MaxPoints:    365 * 10,
		Window:       50,
		MinAverage:   30,
		MonthSamples: 30,
		YearSamples:  365,
		HalfWindow:   50,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxPoints <= 0 {
		o.MaxPoints = d.MaxPoints
	}
	if o.Window <= 0 {
		o.Window = d.Window
	}
	if o.MinAverage <= 0 {
		o.MinAverage = d.MinAverage
	}
	if o.MonthSamples <= 0 {
		o.MonthSamples = d.MonthSamples
	}
	if o.YearSamples <= 0 {
		o.YearSamples = d.YearSamples
	}
	if o.HalfWindow <= 0 {
		o.HalfWindow = d.HalfWindow
	}
	return o
}

// Engine turns raw series into analysed stocks. It holds no state besides
// its options and is safe for concurrent use.
type Engine struct {
	opts Options
	log  zerolog.Logger
}

// NewEngine creates an Engine; zero option fields take their defaults.
func NewEngine(opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		opts: opts.withDefaults(),
		log:  log.With().Str("component", "analysis").Logger(),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Analyse computes every metric for one series. ok is false when the
// moving average is too short to analyse, which filters the stock out.
func (e *Engine) Analyse(s model.StockSeries) (stock model.AnalysedStock, ok bool) {
	trimmed := calculator.Trim(s.Data, e.opts.MaxPoints)

	ma, err := calculator.MovingAverage(trimmed, e.opts.Window)
	if err != nil || len(ma) < e.opts.MinAverage {
		e.log.Debug().Str("symbol", s.Symbol).Int("points", len(trimmed)).Int("average", len(ma)).
			Msg("not enough history, skipping")
		return model.AnalysedStock{}, false
	}
	values := calculator.Values(ma)

	growth := calculator.GrowthScore(values, e.opts.YearSamples)
	volatility := calculator.Volatility(values)
	unpredictability := calculator.Unpredictability(trimmed, e.opts.HalfWindow)

	return model.AnalysedStock{
		Name:             s.Name,
		Symbol:           s.Symbol,
		Data:             trimmed,
		MovingAverage:    ma,
		MonthChange:      calculator.MonthChange(values, e.opts.MonthSamples),
		GrowthScore:      growth,
		Volatility:       volatility,
		Unpredictability: unpredictability,
		// No zero guard: a flat stock scores NaN or ±Inf and Rank copes.
		Score: growth / (volatility * unpredictability),
	}, true
}

// AnalyseAll analyses every series in order and drops the ones without
// enough history. The result is not ranked.
func (e *Engine) AnalyseAll(series []model.StockSeries) []model.AnalysedStock {
	results := make([]model.AnalysedStock, 0, len(series))
	for _, s := range series {
		if stock, ok := e.Analyse(s); ok {
			results = append(results, stock)
		}
	}
	e.log.Info().Int("series", len(series)).Int("analysed", len(results)).Msg("analysis complete")
	return results
}

// Run analyses and ranks series in one step.
func (e *Engine) Run(series []model.StockSeries) []model.AnalysedStock {
	return Rank(e.AnalyseAll(series))
}
