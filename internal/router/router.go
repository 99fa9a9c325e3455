package router // package router defines how HTTP routes are registered for the API

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/catalogify/product-catalog-api/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  register, login and
// refresh are anonymous by nature; revoke requires a valid access token, so
// the caller supplies the JWT guard middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/api/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/revoke", a.Revoke, guard)
}

// RegisterProducts registers the catalog endpoints.  Reads are public and
// optionally cached; every mutation goes through the JWT guard.  cache may
// be nil when no Redis client is configured.
func RegisterProducts(e *echo.Echo, p *handler.ProductHandler, guard echo.MiddlewareFunc, cache echo.MiddlewareFunc) {
	g := e.Group("/api/v1/products")

	reads := []echo.MiddlewareFunc{}
	if cache != nil {
		reads = append(reads, cache)
	}
	g.GET("", p.List, reads...)
	g.GET("/search", p.Search, reads...)
	g.GET("/:id", p.GetByID, reads...)

	g.POST("", p.Create, guard)
	g.PUT("/:id", p.Update, guard)
	g.DELETE("/:id", p.Delete, guard)
}

// HTTPErrorHandler converts any error escaping a handler into the API's
// stable {message} shape.  Unanticipated failures are logged server-side
// and reported to the client as a generic 500; no internal detail leaks.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok && code != http.StatusInternalServerError {
			msg = s
		}
	}
	if code == http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"message": msg})
}
