package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/TripTally/trip-tally-backend/errors"
	"github.com/TripTally/trip-tally-backend/logger"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON error body returned to clients.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandler converts errors attached via c.Error into structured
// JSON responses. Handlers never write error bodies themselves.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if appError, ok := err.(*errors.AppError); ok {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, err, statusCode, fmt.Sprintf("%s error", appError.Type))

			response := ErrorResponse{
				Type:    string(appError.Type),
				Message: appError.Message,
				Code:    strconv.Itoa(statusCode),
			}
			// Detail is client-safe for the request-shaped error types.
			switch appError.Type {
			case errors.ValidationError, errors.SplitMismatchError,
				errors.NotFoundError, errors.ConflictError:
				response.Details = appError.Detail
			default:
				if gin.IsDebugging() {
					response.Details = appError.Detail
				}
			}

			c.JSON(statusCode, response)
			c.Abort()
			return
		}

		logger.LogHTTPError(c, err, http.StatusInternalServerError, "Unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Type:    string(errors.ServerError),
			Message: "Internal server error",
			Code:    strconv.Itoa(http.StatusInternalServerError),
		})
		c.Abort()
	}
}
