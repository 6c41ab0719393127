package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tradeJournal/internal/app"
	"tradeJournal/internal/domain"
	"tradeJournal/internal/ledger"
	"tradeJournal/internal/ports"
)

const dateLayout = "2006-01-02"

// Handler exposes the journal over REST.
type Handler struct {
	journal     *app.JournalService
	market      *app.MarketService // nil when market data is disabled
	logger      ports.Logger
	dayLocation *time.Location
	now         func() time.Time
	health      func(ctx context.Context) error
}

// Config holds the dependencies of the HTTP handler.
type Config struct {
	Journal     *app.JournalService
	Market      *app.MarketService
	Logger      ports.Logger
	DayLocation *time.Location // Zone used to decide what "today" is
	Now         func() time.Time
	Health      func(ctx context.Context) error // Store ping for /healthz
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Journal == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("journal service and logger are required for HTTP handler")
	}
	if cfg.DayLocation == nil {
		cfg.DayLocation = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := registerValidations(); err != nil {
		return nil, err
	}
	return &Handler{
		journal:     cfg.Journal,
		market:      cfg.Market,
		logger:      cfg.Logger,
		dayLocation: cfg.DayLocation,
		now:         cfg.Now,
		health:      cfg.Health,
	}, nil
}

func registerValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return domain.ValidSymbol(fl.Field().String())
	})
}

// NewRouter builds a gin engine with recovery, request logging and all routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/positions", h.ListPositions)
		api.GET("/total_volume", h.TotalVolume)

		api.GET("/trades", h.ListClosedTrades)
		api.POST("/trades", h.CreateTrade)
		api.GET("/trades/:id", h.GetTrade)
		api.PUT("/trades/:id", h.EditTrade)
		api.DELETE("/trades/:id", h.DeleteTrade)
		api.POST("/trades/:id/trigger_close", h.TriggerClose)

		api.GET("/statistics", h.Statistics)
		api.GET("/daily_pnl", h.DailyPNL)
		api.GET("/daily_fees", h.DailyFees)
		api.GET("/daily_pnl_history", h.DailyHistory)
		api.GET("/symbol_pnl", h.SymbolPNL)
		api.GET("/debug/trades_today_count", h.TradesTodayCount)

		api.GET("/balances", h.Balances)
		api.POST("/balances/deposit", h.Deposit)
		api.POST("/balances/withdraw", h.Withdraw)

		api.GET("/market_data", h.MarketData)

		api.POST("/admin/reconcile_volume", h.ReconcileVolume)
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug(c.Request.Context(), "HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// statusFor maps ledger errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrValidation),
		errors.Is(err, ports.ErrInvalidAmount),
		errors.Is(err, ports.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, ports.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ports.ErrMarketDataUnavailable), errors.Is(err, ports.ErrRateLimited):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// day returns the date query parameter, or today in the configured zone.
func (h *Handler) day(c *gin.Context) (time.Time, bool) {
	if raw := c.Query("date"); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, h.dayLocation)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
			return time.Time{}, false
		}
		return d, true
	}
	return h.now().In(h.dayLocation), true
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListPositions(c *gin.Context) {
	positions, err := h.journal.ListOpenPositions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

func (h *Handler) ListClosedTrades(c *gin.Context) {
	trades, err := h.journal.ListClosedTrades(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (h *Handler) TotalVolume(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"total_volume": h.journal.TotalVolume(c.Request.Context())})
}

type createTradeRequest struct {
	Symbol     string `json:"symbol" binding:"required,symbol"`
	Side       string `json:"side"`
	Size       any    `json:"size"`
	EntryPrice any    `json:"entry_price"`
	ExitPrice  any    `json:"exit_price"`
	PNL        any    `json:"pnl"`
	TakeProfit any    `json:"take_profit"`
	StopLoss   any    `json:"stop_loss"`
	Tier       string `json:"tier"`
}

func (h *Handler) CreateTrade(c *gin.Context) {
	var req createTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	trade, err := h.journal.CreateTrade(c.Request.Context(), app.CreateTradeInput{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Size:       req.Size,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		PNL:        req.PNL,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Tier:       req.Tier,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

func (h *Handler) GetTrade(c *gin.Context) {
	trade, err := h.journal.GetTrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (h *Handler) EditTrade(c *gin.Context) {
	var edit app.TradeEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		h.badRequest(c, err)
		return
	}
	trade, err := h.journal.EditTrade(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (h *Handler) DeleteTrade(c *gin.Context) {
	if err := h.journal.DeleteTrade(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trade deleted"})
}

type triggerCloseRequest struct {
	TriggerPrice any `json:"trigger_price" binding:"required"`
}

func (h *Handler) TriggerClose(c *gin.Context) {
	var req triggerCloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	price := ledger.Coerce(req.TriggerPrice, nil)
	if price == nil {
		h.badRequest(c, fmt.Errorf("invalid trigger_price"))
		return
	}
	trade, err := h.journal.TriggerClose(c.Request.Context(), c.Param("id"), *price)
	if err != nil && !errors.Is(err, ports.ErrAlreadyClosed) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (h *Handler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.journal.Statistics(c.Request.Context()))
}

func (h *Handler) DailyPNL(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily_pnl": h.journal.DailyPNL(c.Request.Context(), day)})
}

func (h *Handler) DailyFees(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily_fees": h.journal.DailyFees(c.Request.Context(), day)})
}

func (h *Handler) DailyHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.journal.DailyHistory(c.Request.Context()))
}

func (h *Handler) SymbolPNL(c *gin.Context) {
	c.JSON(http.StatusOK, h.journal.SymbolPNL(c.Request.Context()))
}

func (h *Handler) TradesTodayCount(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades_created_today": h.journal.TradesOpenedOn(c.Request.Context(), day)})
}

func (h *Handler) Balances(c *gin.Context) {
	balances, err := h.journal.Balances(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

type balanceRequest struct {
	Symbol string `json:"symbol" binding:"required,symbol"`
	Amount any    `json:"amount"`
}

func (h *Handler) Deposit(c *gin.Context) {
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	balances, err := h.journal.Deposit(c.Request.Context(), req.Symbol, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit recorded", "balances": balances})
}

func (h *Handler) Withdraw(c *gin.Context) {
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	balances, err := h.journal.Withdraw(c.Request.Context(), req.Symbol, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal recorded", "balances": balances})
}

type marketDataQuery struct {
	IDs string `form:"ids" binding:"required"`
}

func (h *Handler) MarketData(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data is disabled"})
		return
	}
	var q marketDataQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	quotes, err := h.market.Lookup(c.Request.Context(), strings.Split(q.IDs, ","))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *Handler) ReconcileVolume(c *gin.Context) {
	before, after, err := h.journal.ReconcileVolume(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"before": before, "after": after})
}
