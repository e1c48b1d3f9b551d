package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/raykavin/rulegate"
	"github.com/raykavin/rulegate/internal/config"
	"github.com/raykavin/rulegate/pkg/analysis"
	"github.com/raykavin/rulegate/pkg/backtest"
	"github.com/raykavin/rulegate/pkg/core"
	"github.com/raykavin/rulegate/pkg/extract"
	"github.com/raykavin/rulegate/pkg/marketdata"
	"github.com/raykavin/rulegate/pkg/notification"
	"github.com/raykavin/rulegate/pkg/optimizer"
	"github.com/raykavin/rulegate/pkg/store"
	"github.com/raykavin/rulegate/pkg/strategies"
	"github.com/raykavin/rulegate/pkg/verdict"
	"github.com/spf13/cobra"
	str2duration "github.com/xhit/go-str2duration/v2"
)

const dateLayout = "2006-01-02"

// Command line flags
var (
	symbol     string
	startDate  string
	endDate    string
	splitDate  string
	maxAgeFlag string
	maxTries   int
	topN       int
	recentDays int
	resetStore bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rulegate",
		Short:   "Evaluate single-asset trading rules with train/test discipline",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildDiscoverCmd())
	rootCmd.AddCommand(buildOptimizeCmd())
	rootCmd.AddCommand(buildSignalCmd())
	rootCmd.AddCommand(buildAnalyzeCmd())
	rootCmd.AddCommand(buildDownloadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <knowledge-file>",
		Short: "Extract a strategy spec from a knowledge document",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiscover,
	}
}

func buildOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Tune the built-in strategies for a symbol and persist verdicts",
		RunE:  runOptimize,
	}

	optimizeCmd.Flags().StringVarP(&symbol, "symbol", "p", "", "Ticker symbol (e.g. BTCUSDT)")
	optimizeCmd.Flags().StringVarP(&startDate, "start", "s", "", "History start date (e.g. 2022-01-01)")
	optimizeCmd.Flags().StringVarP(&endDate, "end", "e", "", "History end date (defaults to today)")
	optimizeCmd.Flags().StringVar(&splitDate, "split", "", "Fit/test split date")
	optimizeCmd.Flags().StringVar(&maxAgeFlag, "max-age", "24h", "Cache freshness window")
	optimizeCmd.Flags().IntVar(&maxTries, "max-tries", 0, "Search budget per strategy (default from env)")
	optimizeCmd.Flags().BoolVar(&resetStore, "reset", false, "Clear previously stored results first")

	optimizeCmd.MarkFlagRequired("symbol")
	optimizeCmd.MarkFlagRequired("start")
	optimizeCmd.MarkFlagRequired("split")

	return optimizeCmd
}

func buildSignalCmd() *cobra.Command {
	signalCmd := &cobra.Command{
		Use:   "signal",
		Short: "Vote the top passing strategies into one LONG/FLAT decision",
		RunE:  runSignal,
	}

	signalCmd.Flags().IntVarP(&topN, "top-n", "n", 0, "Number of strategies in the vote (default from env)")
	signalCmd.Flags().IntVar(&recentDays, "recent-days", 120, "Recent window for signal extraction")
	signalCmd.Flags().StringVar(&maxAgeFlag, "max-age", "24h", "Cache freshness window")

	return signalCmd
}

func buildAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Summarize stored optimization results",
		RunE:  runAnalyze,
	}
}

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Prime the market data cache for a symbol",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&symbol, "symbol", "p", "", "Ticker symbol (e.g. BTCUSDT)")
	downloadCmd.Flags().StringVarP(&startDate, "start", "s", "", "History start date")
	downloadCmd.Flags().StringVarP(&endDate, "end", "e", "", "History end date (defaults to today)")

	downloadCmd.MarkFlagRequired("symbol")
	downloadCmd.MarkFlagRequired("start")

	return downloadCmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.OpenAIToken == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for discovery")
	}

	knowledge, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read knowledge file: %w", err)
	}

	extractor := extract.NewOpenAIExtractor(cfg.OpenAIToken, cfg.OpenAIModel)
	spec, err := extractor.Extract(cmd.Context(), string(knowledge), args[0])
	if err != nil {
		return err
	}

	if spec.Skipped() {
		fmt.Printf("spec %q skipped: %s\n", spec.Name, spec.SkipReason)
		return nil
	}

	encoded, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	cfg, pipeline, resultStore, err := buildPipeline()
	if err != nil {
		return err
	}

	if resetStore {
		if err := resultStore.Reset(); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	split, err := time.Parse(dateLayout, splitDate)
	if err != nil {
		return fmt.Errorf("invalid split date: %w", err)
	}
	end := time.Now().UTC()
	if endDate != "" {
		if end, err = time.Parse(dateLayout, endDate); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	maxAge, err := str2duration.ParseDuration(maxAgeFlag)
	if err != nil {
		return fmt.Errorf("invalid max-age: %w", err)
	}

	tries := maxTries
	if tries <= 0 {
		tries = cfg.MaxTries
	}

	specs := []core.StrategySpec{
		strategies.SMACrossSpec(symbol),
		strategies.MomentumBreakoutSpec(symbol),
		strategies.RSIReversionSpec(symbol),
	}

	summary, err := pipeline.RunBatch(cmd.Context(), specs, rulegate.BatchOptions{
		Start:     start,
		End:       end,
		SplitDate: split,
		MaxAge:    maxAge,
		MaxTries:  tries,
		Progress:  true,
	})
	if err != nil {
		return err
	}

	return (&analysis.Summary{
		Results: summary.Results,
		Skipped: summary.Skipped,
		Errors:  summary.Errors,
	}).WriteTable(os.Stdout)
}

func runSignal(cmd *cobra.Command, _ []string) error {
	cfg, pipeline, _, err := buildPipeline()
	if err != nil {
		return err
	}

	maxAge, err := str2duration.ParseDuration(maxAgeFlag)
	if err != nil {
		return fmt.Errorf("invalid max-age: %w", err)
	}

	n := topN
	if n <= 0 {
		n = cfg.TopN
	}

	decision, err := pipeline.Decide(cmd.Context(), n, recentDays, maxAge)
	if err != nil {
		return err
	}

	fmt.Printf("Consensus: %s (%d long / %d flat / %d error)\n",
		decision.Consensus, decision.Tally.Longs, decision.Tally.Flats, decision.Tally.Errors)
	for name, sig := range decision.Signals {
		fmt.Printf("  %-24s %s\n", name, sig)
	}
	return nil
}

func runAnalyze(*cobra.Command, []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	resultStore, err := openStore(cfg)
	if err != nil {
		return err
	}

	results, err := resultStore.All()
	if err != nil {
		return err
	}

	summary := analysis.Summary{Results: results}
	if err := summary.WriteTable(os.Stdout); err != nil {
		return err
	}
	return summary.WriteReturnHistogram(os.Stdout)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end := time.Now().UTC()
	if endDate != "" {
		if end, err = time.Parse(dateLayout, endDate); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	cache, err := buildCache(cfg)
	if err != nil {
		return err
	}

	// A zero max age forces a refresh regardless of the persisted entry
	series, err := cache.Fetch(cmd.Context(), symbol, start, end, 0)
	if err != nil {
		return err
	}

	fmt.Printf("cached %d candles for %s\n", len(series), symbol)
	return nil
}

func buildCache(cfg *config.Config) (*marketdata.Cache, error) {
	feeder := marketdata.NewBinanceFeeder(cfg.BinanceAPIKey, cfg.BinanceAPISecret)
	return marketdata.NewCache(cfg.CacheDir, feeder, rulegate.DefaultLog)
}

func openStore(cfg *config.Config) (core.ResultStore, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return store.FromSQLite(cfg.StorePath)
	case "buntdb", "":
		return store.FromFile(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func buildPipeline() (*config.Config, *rulegate.Pipeline, core.ResultStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	cache, err := buildCache(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	resultStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	options := backtest.DefaultOptions()
	options.InitialCash = cfg.InitialCash
	options.CommissionRate = cfg.CommissionRate

	engine := verdict.NewEngine(verdict.Thresholds{
		MinTrades:   cfg.MinTrades,
		MinSharpe:   cfg.MinSharpe,
		MaxDrawdown: cfg.MaxDrawdown,
	}, options)

	generator := extract.NewRegistryGenerator(
		strategies.SMACross{},
		strategies.MomentumBreakout{},
		strategies.RSIReversion{},
	)

	opt := optimizer.New(engine, rulegate.DefaultLog)

	pipelineOptions := []rulegate.Option{rulegate.WithBacktestOptions(options)}
	if cfg.TelegramToken != "" {
		notifier, err := notification.NewTelegram(notification.TelegramSettings{
			Token: cfg.TelegramToken,
			Users: cfg.TelegramUsers,
		}, rulegate.DefaultLog)
		if err != nil {
			return nil, nil, nil, err
		}
		pipelineOptions = append(pipelineOptions, rulegate.WithNotifier(notifier))
	}

	pipeline := rulegate.New(cache, generator, opt, resultStore, rulegate.DefaultLog, pipelineOptions...)
	return cfg, pipeline, resultStore, nil
}
