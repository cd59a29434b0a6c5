package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"etf-grid-backtest/internal/analysis"
	"etf-grid-backtest/internal/backtest"
	"etf-grid-backtest/internal/config"
	"etf-grid-backtest/internal/data"
	"etf-grid-backtest/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	case "suitability":
		cmdSuitability(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --data history.csv --config examples/config.yaml --out results/")
	fmt.Println("  cli sweep --data history.csv [--atr 0.25] [--top 5]")
	fmt.Println("  cli suitability --data history.csv")
	fmt.Println("  cli import --data history.csv --db bars.db --symbol 510300")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --data accepts .csv or column-oriented .json history files")
	fmt.Println("  - --db/--symbol load bars from a SQLite store instead of --data")
}

type dataFlags struct {
	dataPath string
	dbPath   string
	symbol   string
	start    string
	end      string
}

func (d *dataFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.dataPath, "data", "", "Path to CSV or JSON bar history")
	fs.StringVar(&d.dbPath, "db", "", "Path to SQLite bar store")
	fs.StringVar(&d.symbol, "symbol", "", "Symbol to load from the bar store")
	fs.StringVar(&d.start, "start", "", "Start date YYYY-MM-DD (store only)")
	fs.StringVar(&d.end, "end", "", "End date YYYY-MM-DD (store only)")
}

func (d *dataFlags) load() model.Series {
	if d.dbPath != "" {
		if d.symbol == "" {
			fmt.Println("--symbol is required with --db")
			os.Exit(2)
		}
		store, err := data.OpenStore(d.dbPath)
		if err != nil {
			panic(err)
		}
		defer store.Close()
		bars, err := store.LoadBars(d.symbol, parseDateFlag(d.start), parseDateFlag(d.end))
		if err != nil {
			panic(err)
		}
		if len(bars) == 0 {
			fmt.Printf("no bars stored for %s\n", d.symbol)
			os.Exit(1)
		}
		return bars
	}
	if d.dataPath == "" {
		fmt.Println("--data or --db is required")
		os.Exit(2)
	}
	bars, err := loadFile(d.dataPath)
	if err != nil {
		panic(err)
	}
	return bars
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	var df dataFlags
	df.register(fs)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outDir := fs.String("out", "results", "Output directory for CSV exports")
	percent := fs.Float64("percent", 0, "Optional: spacing percent override")
	count := fs.Int("count", 0, "Optional: grid count override")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	bars := df.load()

	engine := cfg.Engine()
	spec := cfg.GridSpec()
	if *count > 0 {
		spec.Count = *count
	}
	if *percent > 0 {
		spec.Step = 0
		spec.StepPercent = *percent
	}

	res, err := engine.Run(bars, spec)
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}
	tradesPath := filepath.Join(*outDir, "trades.csv")
	equityPath := filepath.Join(*outDir, "equity.csv")
	if err := backtest.WriteTradesCSV(tradesPath, res.Trades); err != nil {
		panic(err)
	}
	if err := backtest.WriteEquityCSV(equityPath, res.Equity); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %d trades to %s, %d equity rows to %s\n",
		len(res.Trades), tradesPath, len(res.Equity), equityPath)
	printMetrics(res.Metrics)
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	var df dataFlags
	df.register(fs)
	cfgPath := fs.String("config", "", "Path to YAML config")
	atr := fs.Float64("atr", 0, "ATR override (0 = derive from the series)")
	top := fs.Int("top", 0, "Number of top combinations to print")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	bars := df.load()

	sweeper := analysis.NewSweeper(cfg.Engine())
	if *top > 0 {
		sweeper.TopN = *top
	} else if cfg.Sweep.TopN > 0 {
		sweeper.TopN = cfg.Sweep.TopN
	}
	if cfg.Sweep.Workers > 0 {
		sweeper.Workers = cfg.Sweep.Workers
	}

	res, err := sweeper.Run(context.Background(), bars, *atr)
	if err != nil {
		panic(err)
	}

	fmt.Printf("ATR=%.4f evaluated=%d failed=%d\n", res.ATR, res.Evaluated, len(res.Failures))
	fmt.Printf("%-4s %-6s %-7s %-8s %-9s %-9s %-9s %-8s\n",
		"rank", "grids", "factor", "step", "return", "annual", "drawdown", "score")
	for i, r := range res.Top {
		fmt.Printf("%-4d %-6d %-7.2f %-8.4f %-9.4f %-9.4f %-9.4f %-8.4f\n",
			i+1,
			r.Params.GridCount,
			r.Params.ATRFactor,
			r.Params.Step,
			r.Metrics.TotalReturn,
			r.Metrics.AnnualReturn,
			r.Metrics.MaxDrawdown,
			r.Metrics.Score,
		)
	}
}

func cmdSuitability(args []string) {
	fs := flag.NewFlagSet("suitability", flag.ExitOnError)
	var df dataFlags
	df.register(fs)
	_ = fs.Parse(args)

	bars := df.load()
	res, err := analysis.EvaluateSuitability(bars)
	if err != nil {
		panic(err)
	}

	fmt.Printf("suitable=%v composite=%.2f atr=%.4f\n", res.Suitable, res.Composite, res.ATR)
	fmt.Printf("  volatility=%.2f trend=%.2f oscillation=%.2f safety=%.2f\n",
		res.Scores.Volatility, res.Scores.Trend, res.Scores.Oscillation, res.Scores.Safety)
	fmt.Printf("  %s\n", res.Verdict)
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to CSV or JSON bar history")
	dbPath := fs.String("db", "bars.db", "Path to SQLite bar store")
	symbol := fs.String("symbol", "", "Symbol to store the bars under")
	_ = fs.Parse(args)

	if *dataPath == "" || *symbol == "" {
		fmt.Println("--data and --symbol are required")
		os.Exit(2)
	}

	bars, err := loadFile(*dataPath)
	if err != nil {
		panic(err)
	}
	store, err := data.OpenStore(*dbPath)
	if err != nil {
		panic(err)
	}
	defer store.Close()
	if err := store.SaveBars(*symbol, bars); err != nil {
		panic(err)
	}
	fmt.Printf("Imported %d bars for %s into %s\n", len(bars), *symbol, *dbPath)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func loadFile(path string) (model.Series, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return data.LoadHistoryJSON(path)
	default:
		return data.LoadCSV(path)
	}
}

func parseDateFlag(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		fmt.Printf("bad date %q, want YYYY-MM-DD\n", s)
		os.Exit(2)
	}
	return t
}

func printMetrics(m backtest.Metrics) {
	fmt.Printf("Total return=%.4f annual=%.4f drawdown=%.4f sharpe=%.2f\n",
		m.TotalReturn, m.AnnualReturn, m.MaxDrawdown, m.SharpeRatio)
	fmt.Printf("Realized=%.2f float=%.2f utilization=%.4f trades=%d score=%.4f\n",
		m.RealizedProfit, m.FloatPnL, m.CapitalUtilization, m.TradeCount, m.Score)
	fmt.Printf("Benchmark return=%.4f annual=%.4f drawdown=%.4f\n",
		m.BenchmarkTotalReturn, m.BenchmarkAnnualReturn, m.BenchmarkMaxDrawdown)
}
