package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/pkg/response"
)

type resultsService interface {
	Get(ctx context.Context, userID, session string) (*models.Results, error)
}

// ResultsHandler serves per-session results.
type ResultsHandler struct {
	service resultsService
}

// NewResultsHandler constructs a results handler.
func NewResultsHandler(svc resultsService) *ResultsHandler {
	return &ResultsHandler{service: svc}
}

// Get godoc
// @Summary Results of a session
// @Tags Results
// @Produce json
// @Param session path string true "Session id, year followed by term (1 winter, 2 summer, 3 autumn)"
// @Success 200 {object} models.Results
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 401 {object} response.ErrorEnvelope
// @Security AccessToken
// @Router /results/{session} [get]
func (h *ResultsHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.service.Get(c.Request.Context(), userID, c.Param("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
