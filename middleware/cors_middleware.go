package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds the CORS headers written on every response
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

// DefaultCORSConfig lets the sign-up form post from any origin
var DefaultCORSConfig = CORSConfig{
	AllowOrigin:  "*",
	AllowMethods: []string{"POST", "OPTIONS"},
	AllowHeaders: []string{"Content-Type"},
}

// CORS writes the default CORS headers
func CORS() echo.MiddlewareFunc {
	return CORSWithConfig(DefaultCORSConfig)
}

// CORSWithConfig writes the configured CORS headers before the handler runs,
// so error responses carry them too. Preflight requests are answered by the
// handler itself.
func CORSWithConfig(config CORSConfig) echo.MiddlewareFunc {
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, config.AllowOrigin)
			h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			return next(c)
		}
	}
}
