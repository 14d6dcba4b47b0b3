// Package router registers the API routes on echo.
package router

import (
	"emuss/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler   *handler.UserHandler
	SystemHandler *handler.SystemHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler   *handler.UserHandler
	systemHandler *handler.SystemHandler
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:   params.UserHandler,
		systemHandler: params.SystemHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/", r.systemHandler.Root)

	api := e.Group("/api")
	api.GET("/health", r.systemHandler.Health)

	users := api.Group("/users")
	{
		users.POST("/login", r.userHandler.Login)
		users.POST("/register", r.userHandler.Register)
		users.GET("/getAllUsers", r.userHandler.GetAll)
		users.PUT("/:id", r.userHandler.Update)
		users.DELETE("/:id", r.userHandler.Delete)
	}
}
