package http

import (
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Middleware struct {
	XRay          echo.MiddlewareFunc
	Metrics       echo.MiddlewareFunc
	RequestLogger echo.MiddlewareFunc
	RequireAuth   echo.MiddlewareFunc
	OptionalAuth  echo.MiddlewareFunc
}

type Handlers struct {
	Auth       *AuthHandler
	Users      *UsersHandler
	Orders     *OrdersHandler
	Franchises *FranchisesHandler
	Metrics    stdhttp.Handler
}

func newEcho(m Middleware) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	for _, mw := range []echo.MiddlewareFunc{m.XRay, m.Metrics, m.RequestLogger} {
		if mw != nil {
			e.Use(mw)
		}
	}
	return e
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func orPassthrough(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return passthrough
	}
	return mw
}

func NewRouter(h Handlers, m Middleware) *echo.Echo {
	e := newEcho(m)
	authed := orPassthrough(m.RequireAuth)
	optional := orPassthrough(m.OptionalAuth)

	e.POST("/api/auth", h.Auth.Register)
	e.PUT("/api/auth", h.Auth.Login)
	e.DELETE("/api/auth", h.Auth.Logout)

	e.GET("/api/user/me", h.Users.Me, authed)
	e.GET("/api/user", h.Users.List, authed)
	e.PUT("/api/user/:userId", h.Users.Update, authed)
	e.DELETE("/api/user/:userId", h.Users.Delete, authed)

	e.GET("/api/order/menu", h.Orders.Menu)
	e.PUT("/api/order/menu", h.Orders.AddMenuItem, authed)
	e.GET("/api/order", h.Orders.List, authed)
	e.POST("/api/order", h.Orders.Create, authed)
	e.GET("/api/order/:orderId", h.Orders.Get, authed)

	e.GET("/api/franchise", h.Franchises.List, optional)
	e.GET("/api/franchise/:userId", h.Franchises.ListForUser, authed)
	e.POST("/api/franchise", h.Franchises.Create, authed)
	e.DELETE("/api/franchise/:franchiseId", h.Franchises.Delete, authed)
	e.GET("/api/franchise/:franchiseId/store", h.Franchises.Get, authed)
	e.POST("/api/franchise/:franchiseId/store", h.Franchises.CreateStore, authed)
	e.DELETE("/api/franchise/:franchiseId/store/:storeId", h.Franchises.DeleteStore, authed)

	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}
	return e
}
