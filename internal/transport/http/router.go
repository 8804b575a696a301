package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/ovchar/tradejournal/internal/handlers"
	mwauth "github.com/ovchar/tradejournal/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProjectHandler *handlers.ProjectHandler
	TradeHandler   *handlers.TradeHandler
	SearchHandler  *handlers.SearchHandler
	AuthMiddleware *mwauth.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/users", d.AuthHandler.Register)
	e.POST("/auth", d.AuthHandler.Login)
	e.POST("/auth/refresh", d.AuthHandler.Refresh)
	e.POST("/auth/logout", d.AuthHandler.Logout)
	e.GET("/auth/check-credentials", d.AuthHandler.CheckCredentials)

	private := e.Group("", d.AuthMiddleware.RequireLogin)

	private.POST("/projects", d.ProjectHandler.CreateProject)
	private.GET("/projects", d.ProjectHandler.GetProjects)
	private.GET("/projects/:id", d.ProjectHandler.GetProject)
	private.PATCH("/projects/:id", d.ProjectHandler.PatchProject)
	private.DELETE("/projects/:id", d.ProjectHandler.DeleteProject)

	private.POST("/trades", d.TradeHandler.CreateTrade)
	private.GET("/trades", d.TradeHandler.GetTrades)
	private.GET("/trades/:id", d.TradeHandler.GetTrade)
	private.PATCH("/trades/:id", d.TradeHandler.PatchTrade)
	private.DELETE("/trades/:id", d.TradeHandler.DeleteTrade)

	private.GET("/trades/search", d.SearchHandler.Search)
}
