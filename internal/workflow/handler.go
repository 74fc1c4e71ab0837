package workflow

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for workflow transitions and read views.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new workflow handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers workflow routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	articles := router.Group("/articles")
	{
		articles.POST("/:id/submit-for-review", h.transition(ActionSubmitForReview))
		articles.POST("/:id/review", h.transition(ActionReview))
		articles.POST("/:id/approve", h.transition(ActionApprove))
		articles.POST("/:id/reject", h.transition(ActionReject))
		articles.POST("/:id/publish", h.transition(ActionPublish))
		articles.GET("/:id/workflow-history", h.history)
	}

	workflow := router.Group("/workflow")
	{
		workflow.GET("/pending", h.pendingArticles)
		workflow.GET("/stats", h.stats)
		workflow.GET("/secretary", h.availableSecretary)
	}
}

// transitionRequest is the shared body of all transition endpoints; each
// action reads the fields it needs.
type transitionRequest struct {
	ReviewerID *uuid.UUID `json:"reviewer_id"`
	Comment    string     `json:"comment"`
	Reason     string     `json:"reason"`
}

// transition builds the POST handler for one workflow action.
func (h *Handler) transition(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		articleID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}

		actorID, ok := h.currentUserID(c)
		if !ok {
			return
		}

		var req transitionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		result, err := h.service.Execute(c.Request.Context(), articleID, actorID, action, Payload{
			ReviewerID: req.ReviewerID,
			Comment:    req.Comment,
			Reason:     req.Reason,
		})
		if err != nil {
			h.renderError(c, action, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// history handles GET /articles/:id/workflow-history
func (h *Handler) history(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	steps, err := h.service.History(c.Request.Context(), articleID)
	if err != nil {
		h.logger.Error("Failed to load workflow history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": steps})
}

// pendingArticles handles GET /workflow/pending
func (h *Handler) pendingArticles(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	articles, err := h.service.PendingForReviewer(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list pending articles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": articles})
}

// stats handles GET /workflow/stats
func (h *Handler) stats(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.service.StatsForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to compute workflow stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// availableSecretary handles GET /workflow/secretary
func (h *Handler) availableSecretary(c *gin.Context) {
	secretary, err := h.service.AvailableSecretary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to look up secretary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if secretary == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "no copy editor available"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": secretary})
}

// currentUserID reads the actor id the auth middleware stored on the
// context.
func (h *Handler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) renderError(c *gin.Context, action Action, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ErrMissingPayload):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrStoreUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		h.logger.Error("Workflow transition failed", zap.String("action", string(action)), zap.Error(err))
	} else {
		h.logger.Warn("Workflow transition refused", zap.String("action", string(action)), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
