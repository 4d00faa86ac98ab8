package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glotta/agency-api/internal/middleware"
	"github.com/glotta/agency-api/internal/services"
)

// ErrorBody is the error payload inside a failed response envelope
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Response is the uniform API envelope. Success responses carry data; failed
// ones carry a coded error.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, err error) {
	svcErr := services.AsServiceError(err)
	c.JSON(svcErr.StatusCode, Response{
		Success: false,
		Error: &ErrorBody{
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			StatusCode: svcErr.StatusCode,
		},
	})
}

func respondValidation(c *gin.Context, format string, args ...any) {
	respondError(c, services.ErrValidation(format, args...))
}

func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		ID:   middleware.GetUserID(c),
		Role: middleware.GetUserRole(c),
	}
}

func attachment(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
