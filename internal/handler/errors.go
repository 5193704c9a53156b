package handler

import (
	"errors"
	"net/http"

	"incorpo/internal/auth"
	"incorpo/internal/service"
	"incorpo/pkg/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrLinkNotFound),
		errors.Is(err, service.ErrConversionNotFound),
		errors.Is(err, service.ErrPayoutNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidAffiliateCode),
		errors.Is(err, service.ErrStatusRequired),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrBelowMinPayout),
		errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConversionExists),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConcurrentUpdate),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrUsernameExists),
		errors.Is(err, service.ErrInvoicePaid),
		errors.Is(err, service.ErrInvoiceNotPaid):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnverifiedEmail):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCreds),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// errorResponder writes error bodies. Unmapped errors become a generic 500;
// withDetail adds the underlying message to those for non-production admin
// routes.
type errorResponder struct {
	log        logger.Logger
	withDetail bool
}

func (r errorResponder) respond(c *gin.Context, err error) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	r.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	body := gin.H{"error": "internal server error"}
	if r.withDetail {
		body["detail"] = err.Error()
	}
	c.JSON(status, body)
}
