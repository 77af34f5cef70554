package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/results-app/internal/middleware"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
	"github.com/noah-isme/results-app/pkg/response"
)

// currentUser returns the caller's user id, answering 401 when the route was
// reached without AccessToken.
func currentUser(c *gin.Context) (string, bool) {
	claims, ok := middleware.Claims(c)
	if !ok || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
