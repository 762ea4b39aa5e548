package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/proudcore/economy_ledger/internal/apperrors"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
	"github.com/proudcore/economy_ledger/internal/dto"
)

// currencyHandler handles HTTP requests for the currency catalog.
type currencyHandler struct {
	catalogSvc portssvc.CurrencyCatalogSvcFacade
}

func newCurrencyHandler(catalogSvc portssvc.CurrencyCatalogSvcFacade) *currencyHandler {
	return &currencyHandler{catalogSvc: catalogSvc}
}

// registerCurrencyRoutes registers the read-only catalog routes. The catalog
// is loaded at startup; there are no mutation endpoints.
func registerCurrencyRoutes(rg *gin.RouterGroup, catalogSvc portssvc.CurrencyCatalogSvcFacade) {
	h := newCurrencyHandler(catalogSvc)

	currencies := rg.Group("/currencies")
	{
		currencies.GET("", h.listCurrencies)
		currencies.GET("/:currencyID", h.getCurrency)
	}
}

func (h *currencyHandler) listCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToListCurrencyResponse(h.catalogSvc.All()))
}

func (h *currencyHandler) getCurrency(c *gin.Context) {
	cur, err := h.catalogSvc.Get(c.Param("currencyID"))
	if err != nil {
		if errors.Is(err, apperrors.ErrCurrencyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read currency"})
		return
	}
	c.JSON(http.StatusOK, dto.ToCurrencyResponse(cur))
}
