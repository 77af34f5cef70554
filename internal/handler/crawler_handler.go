package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/pkg/response"
)

type crawlerService interface {
	GetConfig(ctx context.Context, userID string) (*models.CrawlerConfig, error)
	SaveConfig(ctx context.Context, userID string, cfg models.CrawlerConfig) error
	ListClasses(ctx context.Context, userID string) ([]models.CrawlerClass, error)
	CreateClass(ctx context.Context, userID string, class models.CrawlerClass) (*models.CrawlerClass, error)
	UpdateClass(ctx context.Context, userID, id string, class models.CrawlerClass) (*models.CrawlerClass, error)
	DeleteClass(ctx context.Context, userID, id string) error
	RequestRefresh(ctx context.Context, userID string) error
}

// CrawlerHandler manages crawler settings of the signed in user.
type CrawlerHandler struct {
	service crawlerService
}

// NewCrawlerHandler constructs a crawler handler.
func NewCrawlerHandler(svc crawlerService) *CrawlerHandler {
	return &CrawlerHandler{service: svc}
}

// GetConfig godoc
// @Summary Crawler config
// @Tags Crawler
// @Produce json
// @Success 200 {object} models.CrawlerConfig
// @Failure 404 {object} response.ErrorEnvelope
// @Security AccessToken
// @Router /crawler/config [get]
func (h *CrawlerHandler) GetConfig(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cfg, err := h.service.GetConfig(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// SaveConfig godoc
// @Summary Replace crawler config
// @Tags Crawler
// @Accept json
// @Produce json
// @Param payload body models.CrawlerConfig true "Crawler config"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorEnvelope
// @Security AccessToken
// @Router /crawler/config [post]
func (h *CrawlerHandler) SaveConfig(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var cfg models.CrawlerConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, bindError(err, "invalid crawler config"))
		return
	}
	if err := h.service.SaveConfig(c.Request.Context(), userID, cfg); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// ListClasses godoc
// @Summary Tracked classes
// @Tags Crawler
// @Produce json
// @Success 200 {array} models.CrawlerClass
// @Security AccessToken
// @Router /crawler/class [get]
func (h *CrawlerHandler) ListClasses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	classes, err := h.service.ListClasses(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes)
}

// CreateClass godoc
// @Summary Track a class
// @Tags Crawler
// @Accept json
// @Produce json
// @Param payload body models.CrawlerClass true "Class"
// @Success 201 {object} models.CrawlerClass
// @Failure 400 {object} response.ErrorEnvelope
// @Security AccessToken
// @Router /crawler/class [post]
func (h *CrawlerHandler) CreateClass(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var class models.CrawlerClass
	if err := c.ShouldBindJSON(&class); err != nil {
		response.Error(c, bindError(err, "invalid crawler class"))
		return
	}
	created, err := h.service.CreateClass(c.Request.Context(), userID, class)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// UpdateClass godoc
// @Summary Replace a tracked class
// @Tags Crawler
// @Accept json
// @Produce json
// @Param id path string true "Class id"
// @Param payload body models.CrawlerClass true "Class"
// @Success 200 {object} models.CrawlerClass
// @Failure 404 {object} response.ErrorEnvelope
// @Security AccessToken
// @Router /crawler/class/{id} [put]
func (h *CrawlerHandler) UpdateClass(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var class models.CrawlerClass
	if err := c.ShouldBindJSON(&class); err != nil {
		response.Error(c, bindError(err, "invalid crawler class"))
		return
	}
	updated, err := h.service.UpdateClass(c.Request.Context(), userID, c.Param("id"), class)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated)
}

// DeleteClass godoc
// @Summary Stop tracking a class
// @Tags Crawler
// @Param id path string true "Class id"
// @Success 204
// @Failure 404 {object} response.ErrorEnvelope
// @Security AccessToken
// @Router /crawler/class/{id} [delete]
func (h *CrawlerHandler) DeleteClass(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.DeleteClass(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Refresh godoc
// @Summary Queue a crawl
// @Tags Crawler
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} response.ErrorEnvelope
// @Security AccessToken
// @Router /crawler/refresh [post]
func (h *CrawlerHandler) Refresh(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.RequestRefresh(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}
