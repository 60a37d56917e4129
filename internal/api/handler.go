package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"smartorder/internal/errs"
	"smartorder/internal/models"
	"smartorder/internal/service"
	"smartorder/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders   *service.OrderService
	sessions *service.SessionService
	stats    *service.StatsService
	help     *service.HelpService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	sessions *service.SessionService,
	stats *service.StatsService,
	help *service.HelpService,
) *Handler {
	return &Handler{
		orders:   orders,
		sessions: sessions,
		stats:    stats,
		help:     help,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PUT("/orders/:id/in-progress", h.markInProgress)
		v1.PUT("/orders/:id/ready", h.markReady)
		v1.PUT("/orders/:id/complete", h.markCompleted)

		v1.GET("/kitchen/queue", h.kitchenQueue)
		v1.GET("/active-tables", h.activeTables)

		tables := v1.Group("/tables/:tableNumber")
		{
			tables.GET("/session-status", h.sessionStatus)
			tables.GET("/orders", h.ordersByTable)
			tables.POST("/start-session", h.startSession)
			tables.POST("/process-bill", h.processBill)
			tables.POST("/end-session", h.endSession)
			tables.POST("/process-and-end", h.processAndEnd)
		}

		v1.GET("/stats/daily/:date", h.dailyStats)
		v1.GET("/stats/top-items/:date", h.topItems)
		v1.GET("/stats/category-sales/:date", h.categorySales)
		v1.GET("/stats/busy-hours/:date", h.busyHours)
		v1.GET("/stats/sales-performance/:date", h.salesPerformance)
		v1.GET("/stats/weekly-sales-performance", h.weeklySalesPerformance)
		v1.GET("/stats/monthly-sales-performance/:year/:month", h.monthlySalesPerformance)
		v1.POST("/stats/recompute/:date", h.recomputeStats)

		v1.POST("/help-requests", h.createHelpRequest)
		v1.GET("/help-requests", h.activeHelpRequests)
		v1.GET("/help-requests/:id", h.getHelpRequest)
		v1.PUT("/help-requests/:id/resolve", h.resolveHelpRequest)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// respondError maps the error taxonomy to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrPreconditionFailed):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func pathDate(c *gin.Context) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	ctx := c.Request.Context()

	if status := c.Query("status"); status != "" {
		orders, err := h.orders.ListByStatus(ctx, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
		return
	}

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) markInProgress(c *gin.Context) {
	h.advanceOrder(c, h.orders.AdvanceToInProgress)
}

func (h *Handler) markReady(c *gin.Context) {
	h.advanceOrder(c, h.orders.AdvanceToReady)
}

func (h *Handler) markCompleted(c *gin.Context) {
	h.advanceOrder(c, h.orders.AdvanceToCompleted)
}

func (h *Handler) advanceOrder(c *gin.Context, advance func(ctx context.Context, id int64) (*models.Order, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := advance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) kitchenQueue(c *gin.Context) {
	queue, err := h.orders.GetKitchenQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (h *Handler) ordersByTable(c *gin.Context) {
	orders, err := h.orders.ListByTable(c.Request.Context(), c.Param("tableNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) activeTables(c *gin.Context) {
	tables, err := h.sessions.ActiveTables(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

func (h *Handler) sessionStatus(c *gin.Context) {
	active, err := h.sessions.SessionStatus(c.Request.Context(), c.Param("tableNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_active": active})
}

func (h *Handler) startSession(c *gin.Context) {
	h.sessionAction(c, h.sessions.StartSession)
}

func (h *Handler) processBill(c *gin.Context) {
	h.sessionAction(c, h.sessions.ProcessBill)
}

func (h *Handler) endSession(c *gin.Context) {
	h.sessionAction(c, h.sessions.EndSession)
}

func (h *Handler) processAndEnd(c *gin.Context) {
	h.sessionAction(c, h.sessions.ProcessAndEndSession)
}

func (h *Handler) sessionAction(c *gin.Context, action func(ctx context.Context, tableNumber string) error) {
	if err := action(c.Request.Context(), c.Param("tableNumber")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) dailyStats(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	stats, err := h.stats.StatsForDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) topItems(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	items, err := h.stats.TopSellingItems(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) categorySales(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	sales, err := h.stats.CategorySales(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *Handler) busyHours(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	report, err := h.stats.BusyHours(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) salesPerformance(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	report, err := h.stats.HourlySalesPerformance(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) weeklySalesPerformance(c *gin.Context) {
	report, err := h.stats.WeeklySalesPerformance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) monthlySalesPerformance(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected 1-12"})
		return
	}

	report, err := h.stats.MonthlySalesPerformance(c.Request.Context(), year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) recomputeStats(c *gin.Context) {
	date, ok := pathDate(c)
	if !ok {
		return
	}
	stats, err := h.stats.RecomputeForDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type helpRequestBody struct {
	TableNumber string `json:"table_number" binding:"required"`
	Reason      string `json:"reason,omitempty"`
}

func (h *Handler) createHelpRequest(c *gin.Context) {
	var body helpRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	req, err := h.help.Create(c.Request.Context(), body.TableNumber, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) activeHelpRequests(c *gin.Context) {
	reqs, err := h.help.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *Handler) getHelpRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := h.help.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) resolveHelpRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := h.help.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
