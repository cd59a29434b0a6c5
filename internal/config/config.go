package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"etf-grid-backtest/internal/backtest"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Account AccountConfig `yaml:"account"`
	Grid    GridConfig    `yaml:"grid"`
	Sweep   SweepConfig   `yaml:"sweep"`
	Server  ServerConfig  `yaml:"server"`
}

type AccountConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	FeeRate        float64 `yaml:"fee_rate"`
}

// GridConfig is the default grid layout used when a request does not
// spell one out. Step wins over StepPercent when both are set.
type GridConfig struct {
	Count       int     `yaml:"count"`
	Step        float64 `yaml:"step"`
	StepPercent float64 `yaml:"step_percent"`
	BasePrice   float64 `yaml:"base_price"`
	TradeSize   int     `yaml:"trade_size"`
}

type SweepConfig struct {
	TopN    int                   `yaml:"top_n"`
	Workers int                   `yaml:"workers"`
	Weights backtest.ScoreWeights `yaml:"weights"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialCapital: 100000,
			FeeRate:        0.0001,
		},
		Grid: GridConfig{
			Count:       10,
			StepPercent: 1.5,
		},
		Sweep: SweepConfig{
			TopN:    5,
			Weights: backtest.DefaultScoreWeights(),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML config, fills gaps from the defaults and validates.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	if c.Sweep.Weights == (backtest.ScoreWeights{}) {
		c.Sweep.Weights = backtest.DefaultScoreWeights()
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive, got %v", c.Account.InitialCapital)
	}
	if c.Account.FeeRate < 0 || c.Account.FeeRate >= 1 {
		return fmt.Errorf("account.fee_rate must be in [0, 1), got %v", c.Account.FeeRate)
	}
	if c.Grid.Count < 3 {
		return fmt.Errorf("grid.count must be at least 3, got %d", c.Grid.Count)
	}
	if c.Grid.Step < 0 || c.Grid.StepPercent < 0 {
		return errors.New("grid step settings must not be negative")
	}
	if c.Grid.Step == 0 && c.Grid.StepPercent == 0 {
		return errors.New("one of grid.step or grid.step_percent is required")
	}
	if c.Grid.TradeSize%100 != 0 {
		return fmt.Errorf("grid.trade_size must be a whole number of lots, got %d", c.Grid.TradeSize)
	}
	if c.Sweep.TopN < 0 {
		return fmt.Errorf("sweep.top_n must not be negative, got %d", c.Sweep.TopN)
	}
	return nil
}

// Engine builds a backtest engine from the account settings and score
// weights.
func (c *Config) Engine() *backtest.Engine {
	e := backtest.NewEngine(c.Account.InitialCapital, c.Account.FeeRate)
	e.Weights = c.Sweep.Weights
	return e
}

// GridSpec converts the configured default layout to an engine spec.
func (c *Config) GridSpec() backtest.GridSpec {
	return backtest.GridSpec{
		Count:       c.Grid.Count,
		Step:        c.Grid.Step,
		StepPercent: c.Grid.StepPercent,
		BasePrice:   c.Grid.BasePrice,
		TradeSize:   c.Grid.TradeSize,
	}
}
