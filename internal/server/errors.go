package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicingdomain "github.com/smallbiznis/invoicer/internal/invoicing/domain"
	"github.com/smallbiznis/invoicer/internal/store"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware maps domain sentinels to HTTP statuses after the
// handler chain runs. Not-found is a 404, never a 500: the core
// distinguishes absence from fault and so does the surface.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, invoicingdomain.ErrInvoiceNotFound),
		errors.Is(err, invoicingdomain.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, invoicingdomain.ErrInvalidName),
		errors.Is(err, invoicingdomain.ErrInvalidEmail),
		errors.Is(err, invoicingdomain.ErrInvalidQuantity),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, store.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "storage_unavailable",
			Message: "storage unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
