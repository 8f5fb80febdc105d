package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
)

// AuthMiddleware requires "Authorization: Bearer <token>".
func AuthMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error: "missing authorization header",
					Code:  "UNAUTHORIZED",
				})
			}

			provided, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error: "invalid auth token",
					Code:  "UNAUTHORIZED",
				})
			}

			return next(c)
		}
	}
}
