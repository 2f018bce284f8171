package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"platewatch/internal/alert"
	"platewatch/internal/camera"
	"platewatch/internal/capture"
	"platewatch/internal/config"
	"platewatch/internal/service"
	"platewatch/internal/session"
)

type Handler struct {
	watchlist *service.WatchlistService
	capture   *capture.Controller
	evaluator *session.Evaluator
	hub       *alert.Hub
	config    *config.Config
	log       zerolog.Logger
}

func NewHandler(
	watchlist *service.WatchlistService,
	captureCtl *capture.Controller,
	evaluator *session.Evaluator,
	hub *alert.Hub,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		watchlist: watchlist,
		capture:   captureCtl,
		evaluator: evaluator,
		hub:       hub,
		config:    cfg,
		log:       log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/healthz", h.healthz)

	api := r.Group("/api/v1")
	{
		api.GET("/watchlist", h.listWatchlist)
		api.GET("/capture/status", h.captureStatus)
		api.GET("/capture/log", h.sessionLog)
		api.GET("/capture/alert", h.currentAlert)
		api.GET("/ws", h.websocket)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/watchlist", h.addPlate)
		protected.DELETE("/watchlist/:id", h.removePlate)
		protected.POST("/capture/start", h.startCapture)
		protected.POST("/capture/stop", h.stopCapture)
	}
}

type addPlateRequest struct {
	Number string `json:"number" binding:"required"`
}

func (h *Handler) addPlate(c *gin.Context) {
	var req addPlateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	entry, err := h.watchlist.Add(c.Request.Context(), req.Number)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error().Err(err).Msg("failed to add plate")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusCreated, successResponse(entry))
}

func (h *Handler) removePlate(c *gin.Context) {
	id := c.Param("id")

	if err := h.watchlist.Remove(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("failed to remove plate")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listWatchlist(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.watchlist.List()))
}

func (h *Handler) startCapture(c *gin.Context) {
	if err := h.capture.Start(c.Request.Context()); err != nil {
		if errors.Is(err, camera.ErrUnavailable) {
			c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
			return
		}
		h.log.Error().Err(err).Msg("failed to start capture")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": h.capture.State()})
}

func (h *Handler) stopCapture(c *gin.Context) {
	h.capture.Stop()
	c.JSON(http.StatusOK, gin.H{"state": h.capture.State()})
}

func (h *Handler) captureStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": h.capture.State(),
		"log":   h.evaluator.Log(),
		"alert": h.evaluator.Alert(),
	})
}

func (h *Handler) sessionLog(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.evaluator.Log()))
}

func (h *Handler) currentAlert(c *gin.Context) {
	a := h.evaluator.Alert()
	if a == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, successResponse(a))
}

func (h *Handler) websocket(c *gin.Context) {
	h.hub.HandleConnection(c.Writer, c.Request)
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
