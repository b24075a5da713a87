package middleware

import (
	"github.com/labstack/echo/v4"
)

const apiVersion = "v1"

// VersionMiddleware stamps API and build version headers on every response
type VersionMiddleware struct {
	appVersion string
}

func NewVersionMiddleware(appVersion string) *VersionMiddleware {
	return &VersionMiddleware{appVersion: appVersion}
}

// VersionHeader adds version information to response headers
func (vm *VersionMiddleware) VersionHeader() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", apiVersion)
			c.Response().Header().Set("X-App-Version", vm.appVersion)
			return next(c)
		}
	}
}
