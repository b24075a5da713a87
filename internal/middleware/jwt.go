package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"hotspotpay/internal/common"
	"hotspotpay/internal/config"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const AdminRole = "admin"

// AdminClaims are the claims expected on admin tokens
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth guards the admin routes with bearer tokens signed either by a
// shared HS256 secret or by a key from a JWKS endpoint.
type AdminAuth struct {
	config echojwt.Config
	jwks   *keyfunc.JWKS
}

func NewAdminAuth(cfg config.AuthConfig) (*AdminAuth, error) {
	a := &AdminAuth{}
	a.config = echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(AdminClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid or missing token", nil))
		},
	}

	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Printf("WARN: JWKS refresh failed: %v", err)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS from %s: %w", cfg.JWKSURL, err)
		}
		a.jwks = jwks
		a.config.KeyFunc = jwks.Keyfunc
		return a, nil
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("either JWT_SECRET or JWKS_URL must be set")
	}
	a.config.SigningKey = []byte(cfg.JWTSecret)
	a.config.SigningMethod = echojwt.AlgorithmHS256
	return a, nil
}

// Middleware validates the token and requires the admin role.
func (a *AdminAuth) Middleware() echo.MiddlewareFunc {
	validate := echojwt.WithConfig(a.config)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return validate(requireAdmin(next))
	}
}

// Close stops the background JWKS refresh.
func (a *AdminAuth) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid or missing token", nil))
		}
		claims, ok := token.Claims.(*AdminClaims)
		if !ok || claims.Role != AdminRole {
			return c.JSON(http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", "Admin role required", nil))
		}

		ctx := context.WithValue(c.Request().Context(), common.AdminSubjectKey, claims.Subject)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
