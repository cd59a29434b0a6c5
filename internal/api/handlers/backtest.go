package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"etf-grid-backtest/internal/analysis"
	"etf-grid-backtest/internal/api/models"
	"etf-grid-backtest/internal/backtest"
	"etf-grid-backtest/internal/config"
	"etf-grid-backtest/internal/data"
	"etf-grid-backtest/internal/grid"
	"etf-grid-backtest/internal/model"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	cfg   *config.Config
	store *data.Store
	cache *data.SeriesCache
}

// NewBacktestHandler creates a new backtest handler. store may be nil,
// in which case only inline history requests are served.
func NewBacktestHandler(cfg *config.Config, store *data.Store) *BacktestHandler {
	return &BacktestHandler{
		cfg:   cfg,
		store: store,
		cache: data.NewSeriesCache(time.Hour),
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	bars, err := h.resolveSeries(req.DataSource)
	if err != nil {
		writeError(c, err)
		return
	}

	spec := h.cfg.GridSpec()
	if req.Grid != nil {
		spec = mergeGridSpec(spec, *req.Grid)
	}

	result, err := h.engine(req.Account).Run(bars, spec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewBacktestResponse(result, req.Options))
}

// RunManual handles POST /api/v1/backtest/manual
func (h *BacktestHandler) RunManual(c *gin.Context) {
	var req models.ManualBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	bars, err := h.resolveSeries(req.DataSource)
	if err != nil {
		writeError(c, err)
		return
	}

	count := req.Count
	if count == 0 {
		count = h.cfg.Grid.Count
	}

	result, err := h.engine(req.Account).RunManual(bars, req.SpacingPercent, count, req.BasePrice, req.TradeSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewBacktestResponse(result, req.Options))
}

// Sweep handles POST /api/v1/sweep
func (h *BacktestHandler) Sweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	bars, err := h.resolveSeries(req.DataSource)
	if err != nil {
		writeError(c, err)
		return
	}

	engine := h.engine(req.Account)
	if req.Weights != nil {
		engine.Weights = *req.Weights
	}
	sweeper := analysis.NewSweeper(engine)
	if req.TopN > 0 {
		sweeper.TopN = req.TopN
	} else if h.cfg.Sweep.TopN > 0 {
		sweeper.TopN = h.cfg.Sweep.TopN
	}
	if h.cfg.Sweep.Workers > 0 {
		sweeper.Workers = h.cfg.Sweep.Workers
	}

	res, err := sweeper.Run(c.Request.Context(), bars, req.ATR)
	if err != nil {
		writeError(c, err)
		return
	}

	top := make([]models.BacktestResponse, len(res.Top))
	for i, r := range res.Top {
		top[i] = models.NewBacktestResponse(r, models.BacktestOptions{})
	}
	c.JSON(http.StatusOK, models.SweepResponse{
		Status:    "completed",
		ATR:       res.ATR,
		Evaluated: res.Evaluated,
		Top:       top,
		Failures:  res.Failures,
	})
}

// Suitability handles POST /api/v1/suitability
func (h *BacktestHandler) Suitability(c *gin.Context) {
	var req models.SuitabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	bars, err := h.resolveSeries(req.DataSource)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := analysis.EvaluateSuitability(bars)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuitabilityResponse{Status: "completed", Result: res})
}

// Helper methods

func (h *BacktestHandler) engine(account *models.AccountParams) *backtest.Engine {
	e := h.cfg.Engine()
	if account != nil {
		if account.InitialCapital > 0 {
			e.InitialCapital = account.InitialCapital
		}
		if account.FeeRate != nil {
			e.FeeRate = *account.FeeRate
		}
	}
	return e
}

func (h *BacktestHandler) resolveSeries(ds models.DataSourceConfig) (model.Series, error) {
	if ds.History != nil {
		return ds.History.Series()
	}
	if ds.Symbol == "" {
		return nil, fmt.Errorf("%w: either history or symbol is required", model.ErrBadData)
	}
	if h.store == nil {
		return nil, fmt.Errorf("%w: no bar store configured for symbol lookups", model.ErrBadData)
	}

	start, err := parseDate(ds.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(ds.EndDate)
	if err != nil {
		return nil, err
	}

	key := data.CacheKey(ds.Symbol, start, end)
	if bars, ok := h.cache.Get(key); ok {
		return bars, nil
	}
	bars, err := h.store.LoadBars(ds.Symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars stored for symbol %q", model.ErrBadData, ds.Symbol)
	}
	h.cache.Set(key, bars)
	return bars, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", model.ErrBadData, s)
	}
	return t, nil
}

func mergeGridSpec(base backtest.GridSpec, over models.GridParams) backtest.GridSpec {
	out := base
	if over.Count != 0 {
		out.Count = over.Count
	}
	if over.Step != 0 {
		out.Step = over.Step
		out.StepPercent = 0
	} else if over.StepPercent != 0 {
		out.Step = 0
		out.StepPercent = over.StepPercent
	}
	if over.BasePrice != 0 {
		out.BasePrice = over.BasePrice
	}
	if over.TradeSize != 0 {
		out.TradeSize = over.TradeSize
	}
	return out
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrBadData):
		badRequest(c, "BAD_DATA", err)
	case errors.Is(err, grid.ErrInvalidSpec):
		badRequest(c, "INVALID_GRID", err)
	case errors.Is(err, backtest.ErrInsufficientCapital):
		badRequest(c, "INSUFFICIENT_CAPITAL", err)
	case errors.Is(err, analysis.ErrSeriesTooShort):
		badRequest(c, "SERIES_TOO_SHORT", err)
	case errors.Is(err, analysis.ErrAllCombosFailed):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "ALL_COMBOS_FAILED", Message: err.Error()},
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "BACKTEST_ERROR", Message: err.Error()},
		})
	}
}
