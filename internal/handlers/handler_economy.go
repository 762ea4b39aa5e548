package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/proudcore/economy_ledger/internal/apperrors"
	"github.com/proudcore/economy_ledger/internal/core/domain"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
	"github.com/proudcore/economy_ledger/internal/dto"
	"github.com/proudcore/economy_ledger/internal/middleware"
)

// economyHandler handles HTTP requests for balances and ledger operations.
type economyHandler struct {
	economySvc portssvc.EconomySvcFacade
	catalogSvc portssvc.CurrencyCatalogSvcFacade
}

func newEconomyHandler(economySvc portssvc.EconomySvcFacade, catalogSvc portssvc.CurrencyCatalogSvcFacade) *economyHandler {
	return &economyHandler{economySvc: economySvc, catalogSvc: catalogSvc}
}

// registerEconomyRoutes registers the account, clan and leaderboard routes.
func registerEconomyRoutes(rg *gin.RouterGroup, economySvc portssvc.EconomySvcFacade, catalogSvc portssvc.CurrencyCatalogSvcFacade) {
	h := newEconomyHandler(economySvc, catalogSvc)

	accounts := rg.Group("/accounts/:accountID")
	{
		accounts.GET("/balances", h.getAllBalances)
		accounts.GET("/balances/:currencyID", h.getBalance)
		accounts.GET("/transactions", h.listTransactions)
		accounts.POST("/deposit", h.deposit)
		accounts.POST("/withdraw", h.withdraw)
	}

	clans := rg.Group("/clans/:clanName")
	{
		clans.GET("/balances/:currencyID", h.getClanBalance)
		clans.POST("/deposit", h.clanDeposit)
		clans.POST("/withdraw", h.clanWithdraw)
	}

	rg.POST("/transfers", h.transfer)
	rg.GET("/leaderboard/:currencyID", h.leaderboard)
}

// registerEconomyAdminRoutes registers the operations that bypass normal
// limits; mounted behind the admin auth middleware.
func registerEconomyAdminRoutes(rg *gin.RouterGroup, economySvc portssvc.EconomySvcFacade, catalogSvc portssvc.CurrencyCatalogSvcFacade) {
	h := newEconomyHandler(economySvc, catalogSvc)

	rg.POST("/accounts/:accountID/set", h.set)
	rg.POST("/flush", h.flush)
}

// respondOperation maps a domain result to an HTTP status and writes the body.
func respondOperation(c *gin.Context, result domain.OperationResult) {
	status := http.StatusOK
	if !result.Success {
		switch result.Kind {
		case domain.FailureInvalidAmount, domain.FailureSameAccount:
			status = http.StatusBadRequest
		case domain.FailureCurrencyNotFound:
			status = http.StatusNotFound
		case domain.FailureInsufficientFunds:
			status = http.StatusUnprocessableEntity
		case domain.FailureContention:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, dto.ToOperationResponse(result))
}

func respondReadError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrCurrencyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Error("Read failed", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read ledger state"})
}

func (h *economyHandler) getBalance(c *gin.Context) {
	accountID := domain.AccountID(c.Param("accountID"))
	currencyID := c.Param("currencyID")

	amount, err := h.economySvc.GetBalance(c.Request.Context(), accountID, currencyID)
	if err != nil {
		respondReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountID:  accountID.String(),
		CurrencyID: currencyID,
		Amount:     amount,
		Formatted:  h.catalogSvc.Format(currencyID, amount),
	})
}

func (h *economyHandler) getAllBalances(c *gin.Context) {
	accountID := domain.AccountID(c.Param("accountID"))

	balances, err := h.economySvc.GetAllBalances(c.Request.Context(), accountID)
	if err != nil {
		respondReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountId": accountID.String(), "balances": balances})
}

func (h *economyHandler) listTransactions(c *gin.Context) {
	accountID := domain.AccountID(c.Param("accountID"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	txns, err := h.economySvc.Transactions(c.Request.Context(), accountID, limit)
	if err != nil {
		respondReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": dto.ToTransactionResponses(txns)})
}

func (h *economyHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result := h.economySvc.Deposit(c.Request.Context(), domain.AccountID(c.Param("accountID")), req.CurrencyID, req.Amount, req.Reason)
	respondOperation(c, result)
}

func (h *economyHandler) withdraw(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for withdraw", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result := h.economySvc.Withdraw(c.Request.Context(), domain.AccountID(c.Param("accountID")), req.CurrencyID, req.Amount, req.Reason)
	respondOperation(c, result)
}

func (h *economyHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result := h.economySvc.Transfer(c.Request.Context(),
		domain.AccountID(req.FromAccountID), domain.AccountID(req.ToAccountID),
		req.CurrencyID, req.Amount, req.Reason)
	respondOperation(c, result)
}

func (h *economyHandler) getClanBalance(c *gin.Context) {
	clanName := c.Param("clanName")
	currencyID := c.Param("currencyID")

	amount, err := h.economySvc.GetClanBalance(c.Request.Context(), clanName, currencyID)
	if err != nil {
		respondReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountID:  domain.ClanAccount(clanName).String(),
		CurrencyID: currencyID,
		Amount:     amount,
		Formatted:  h.catalogSvc.Format(currencyID, amount),
	})
}

func (h *economyHandler) clanDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ClanOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for clan deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result := h.economySvc.ClanDeposit(c.Request.Context(), c.Param("clanName"), req.CurrencyID, req.Amount, req.MemberID)
	respondOperation(c, result)
}

func (h *economyHandler) clanWithdraw(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ClanOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for clan withdraw", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result := h.economySvc.ClanWithdraw(c.Request.Context(), c.Param("clanName"), req.CurrencyID, req.Amount, req.MemberID)
	respondOperation(c, result)
}

func (h *economyHandler) leaderboard(c *gin.Context) {
	currencyID := c.Param("currencyID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.economySvc.TopBalances(c.Request.Context(), currencyID, limit)
	if err != nil {
		respondReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currencyId": currencyID, "entries": dto.ToLeaderboardResponse(entries)})
}

func (h *economyHandler) set(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for set", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	accountID := domain.AccountID(c.Param("accountID"))
	if subject, ok := middleware.GetSubjectFromContext(c.Request.Context()); ok {
		logger.Info("Admin balance set requested", slog.String("subject", subject), slog.String("account_id", accountID.String()))
	}

	result := h.economySvc.Set(c.Request.Context(), accountID, req.CurrencyID, req.Amount, req.Reason)
	respondOperation(c, result)
}

// flush forces a durable write of all cached balances. Walks every dirty
// entry, so keep it off any latency-sensitive caller.
func (h *economyHandler) flush(c *gin.Context) {
	if err := h.economySvc.SaveAll(c.Request.Context()); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Bulk flush failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Flush failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "flushed"})
}
