package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/affiliate_signup/controllers"
	"github.com/HSouheill/affiliate_signup/middleware"
	"github.com/HSouheill/affiliate_signup/models"
)

// RegisterAffiliateRoutes sets up the health check and the sign-up endpoint.
// The hosting platform decides which path the function is served under, so
// every other path reaches the sign-up handler.
func RegisterAffiliateRoutes(e *echo.Echo, affiliateController *controllers.AffiliateController, rateLimiter *middleware.RateLimiter) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	}, middleware.APISecurityHeaders())

	signup := []echo.MiddlewareFunc{middleware.APISecurityHeaders(), middleware.CORS()}
	if rateLimiter != nil {
		signup = append(signup, rateLimiter.RateLimit())
	}
	e.Any("/", affiliateController.HandleSignup, signup...)
	e.Any("/*", affiliateController.HandleSignup, signup...)
}

// ErrorHandler converts errors that reach echo into the JSON envelope.
// Anything that is not an *echo.HTTPError is reported as a 500 carrying the
// raw error message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	resp := models.Response{
		Status:  status,
		Message: "Internal server error",
		Error:   err.Error(),
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		resp.Status = status
		resp.Message = http.StatusText(status)
		resp.Error = ""
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			resp.Message = msg
		}
	} else {
		log.Printf("ERROR: unhandled error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, resp)
	}
	if writeErr != nil {
		log.Printf("ERROR: failed to write error response: %v", writeErr)
	}
}
