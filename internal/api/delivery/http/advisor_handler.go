package http

import (
	"net/http"
	"strconv"
	"strings"

	"golang-stock-advisor/internal/api/service"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AdvisorHandler handles HTTP requests for the stored pipeline output.
type AdvisorHandler struct {
	querySvc service.QueryService
	runSvc   service.RunService
	logger   *logger.Logger
}

// NewAdvisorHandler creates a new AdvisorHandler.
func NewAdvisorHandler(querySvc service.QueryService, runSvc service.RunService, logger *logger.Logger) *AdvisorHandler {
	return &AdvisorHandler{querySvc: querySvc, runSvc: runSvc, logger: logger}
}

// RegisterRoutes registers the advisor routes to the Echo group.
func (h *AdvisorHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/recommendations", h.ListRecommendations)
	g.GET("/articles", h.ListArticles)
	g.GET("/tickers", h.ListTickers)
	g.POST("/pipeline/runs", h.TriggerRun)
}

// ListRecommendations returns stored recommendations, newest first,
// optionally filtered by ticker.
func (h *AdvisorHandler) ListRecommendations(c echo.Context) error {
	recs, err := h.querySvc.ListRecommendations(c.Request().Context(), tickerParam(c), limitParam(c))
	if err != nil {
		h.logger.Error("Failed to list recommendations", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list recommendations"})
	}
	return c.JSON(http.StatusOK, recs)
}

// ListArticles returns stored articles, newest first, optionally filtered
// by ticker.
func (h *AdvisorHandler) ListArticles(c echo.Context) error {
	articles, err := h.querySvc.ListArticles(c.Request().Context(), tickerParam(c), limitParam(c))
	if err != nil {
		h.logger.Error("Failed to list articles", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list articles"})
	}
	return c.JSON(http.StatusOK, articles)
}

// ListTickers returns every stored ticker record.
func (h *AdvisorHandler) ListTickers(c echo.Context) error {
	tickers, err := h.querySvc.ListTickers(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list tickers", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list tickers"})
	}
	return c.JSON(http.StatusOK, tickers)
}

// TriggerRun enqueues a pipeline run. An empty body runs the configured
// watchlist.
func (h *AdvisorHandler) TriggerRun(c echo.Context) error {
	var req dto.PipelineRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	id, err := h.runSvc.Trigger(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Failed to trigger pipeline run", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to trigger pipeline run"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message_id": id})
}

func tickerParam(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.QueryParam("ticker")))
}

func limitParam(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
