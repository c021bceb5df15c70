package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"StockRanker/internal/analysis"
	"StockRanker/internal/config"
	"StockRanker/internal/logger"
	"StockRanker/internal/notifier"
	"StockRanker/internal/scheduler"
	"StockRanker/internal/server"
)

const usage = `usage: ranker <command> [flags]

commands:
  rank [-no-cache] [-top N] [-json]   rank the index by composite score
  history [-json] TICKER              raw close history of one ticker
  portfolio [list | add E | remove E] show or edit the watch list
  fred SERIES                         FRED series title and observations
  runs [-limit N]                     recent analysis runs
  serve                               HTTP API, scheduler and Telegram bot
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	a, err := newApp(cfg, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "rank":
		err = a.runRank(ctx, args, os.Stdout)
	case "history":
		err = a.runHistory(ctx, args, os.Stdout)
	case "portfolio":
		err = a.runPortfolio(args, os.Stdout)
	case "fred":
		err = a.runFred(ctx, args, os.Stdout)
	case "runs":
		err = a.runRuns(args, os.Stdout)
	case "serve":
		err = a.serve(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		a.Close()
		os.Exit(1)
	}
}

func (a *app) runRank(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	noCache := fs.Bool("no-cache", false, "delete the cached history and refetch")
	top := fs.Int("top", 20, "number of stocks to print, 0 for all")
	asJSON := fs.Bool("json", false, "print the full analysis as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ranked, err := a.svc.RankedAnalysis(ctx, !*noCache)
	if err != nil {
		return err
	}
	n := *top
	if n == 0 {
		n = -1
	}
	ranked = analysis.Top(ranked, n)
	if *asJSON {
		return writeJSON(out, ranked)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tSYMBOL\tSCORE\tGROWTH\tVOLATILITY\tUNPRED\t30D %\tNAME\t")
	for i, s := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.1f\t%.2f\t%.3f\t%+.1f\t%s\t\n",
			i+1, s.Symbol, s.Score, s.GrowthScore, s.Volatility, s.Unpredictability, s.MonthChange, s.Name)
	}
	return tw.Flush()
}

func (a *app) runHistory(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the series as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one TICKER")
	}

	series, err := a.svc.StockHistory(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(out, series)
	}
	fmt.Fprintf(out, "%s %s (%d points)\n", series.Symbol, series.Name, len(series.Data))
	for _, p := range series.Data {
		fmt.Fprintf(out, "%s\t%.4f\n", p.Date, p.Close)
	}
	return nil
}

func (a *app) runPortfolio(args []string, out io.Writer) error {
	var (
		list []string
		err  error
	)
	switch {
	case len(args) == 0 || (len(args) == 1 && args[0] == "list"):
		list, err = a.portfolio.Load()
	case len(args) == 2 && args[0] == "add":
		list, err = a.portfolio.Add(args[1])
	case len(args) == 2 && args[0] == "remove":
		list, err = a.portfolio.Remove(args[1])
	default:
		return errors.New("expected list, add ENTRY or remove ENTRY")
	}
	if err != nil {
		return err
	}
	for _, e := range list {
		fmt.Fprintln(out, e)
	}
	return nil
}

func (a *app) runFred(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("expected one SERIES code")
	}
	if a.fred == nil {
		return errors.New("fred.api_key is not configured")
	}
	s, err := a.fred.Series(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(out, s)
}

func (a *app) runRuns(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "number of runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	runs, err := a.svc.RecentRuns(*limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tRUN\tSOURCE\tSERIES\tRANKED\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.At.Format(time.DateTime), r.RunID, r.Source, r.Series, r.Analysed, r.Duration, r.Err)
	}
	return tw.Flush()
}

// serve runs the HTTP API with the progress hub, the refresh schedule and,
// when configured, the Telegram bot until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	hub := server.NewHub(a.log)
	go hub.Run(ctx)

	a.publish = hub.Publish

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
		sender = tn
	}
	sched := scheduler.NewScheduler(ctx, a.svc, sender, a.cfg.Schedule.TopN, a.log)
	if err := sched.RegisterAll(a.cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		a.log.Info().Msg("telegram polling started")
	}
	if a.cfg.Schedule.RunOnStart {
		a.log.Info().Msg("run_on_start enabled, refreshing now")
		go sched.RunRefreshNow()
	}

	var fredSource server.SeriesSource
	if a.fred != nil {
		fredSource = a.fred
	}
	h := server.NewAPIHandler(a.svc, a.portfolio, fredSource, hub, a.log)
	srv := &http.Server{
		Addr: a.cfg.Server.Addr,
		Handler: server.NewRouter(h, server.RouterOptions{
			RequestTimeout: a.cfg.Server.RequestTimeout,
			CORSOrigins:    a.cfg.Server.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info().Msg("stopped")
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
