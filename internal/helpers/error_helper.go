package helpers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasgeo/fieldcheck/internal/apperrors"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Message string `json:"message"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:  HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithAppError maps the error taxonomy onto HTTP statuses: validation
// to 400, missing entities to 404, missing external credentials to 401,
// everything else to 500.
func RespondWithAppError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindNotConnected:
		status = http.StatusUnauthorized
	}
	RespondWithError(c, status, err.Error())
}
