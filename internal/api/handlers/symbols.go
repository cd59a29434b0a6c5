package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"etf-grid-backtest/internal/api/models"
	"etf-grid-backtest/internal/data"
)

// SymbolsHandler lists the symbols with stored bar history.
type SymbolsHandler struct {
	store *data.Store
}

func NewSymbolsHandler(store *data.Store) *SymbolsHandler {
	return &SymbolsHandler{store: store}
}

// ListSymbols handles GET /api/v1/symbols
func (h *SymbolsHandler) ListSymbols(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, models.SymbolsResponse{Symbols: []string{}})
		return
	}
	symbols, err := h.store.Symbols()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "STORE_ERROR", Message: err.Error()},
		})
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(http.StatusOK, models.SymbolsResponse{Symbols: symbols})
}
