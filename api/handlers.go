package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

const healthzTimeout = 2 * time.Second

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Services, logger *log.Logger) {
	e.JSONSerializer = SonicSerializer{}
	e.HTTPErrorHandler = errorHandler(logger)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(requestMetricsMiddleware(logger))
	e.Use(requestBody(maxRequestBodySize))

	e.GET("/", root)
	e.GET("/healthz", healthz(svc.Health))

	e.POST("/users", createUser(svc.Credentials))
	e.GET("/users/me", currentUser(svc.Credentials), requireCaller(svc.Auth))
	e.GET("/users/:id", getUser(svc.Credentials))
	e.POST("/login", login(svc.Credentials))

	boards := e.Group("/boards", requireCaller(svc.Auth))
	boards.POST("", createBoard(svc.Boards))
	boards.GET("", listBoards(svc.Boards))
	boards.GET("/:board_id", getBoard(svc.Boards))
	boards.PUT("/:board_id", updateBoard(svc.Boards))
	boards.DELETE("/:board_id", deleteBoard(svc.Boards))

	boards.POST("/:board_id/tasks", createTask(svc.Tasks))
	boards.GET("/:board_id/tasks", listTasks(svc.Tasks))
	boards.GET("/:board_id/tasks/:task_id", getTask(svc.Tasks))
	boards.PUT("/:board_id/tasks/:task_id", updateTask(svc.Tasks))
	boards.PATCH("/:board_id/tasks/:task_id", updateTask(svc.Tasks))
	boards.DELETE("/:board_id/tasks/:task_id", deleteTask(svc.Tasks))
}

func root(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Hello , World!"})
}

func healthz(store Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store == nil {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthzTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			metricsFrom(c).SetErrorStage("store")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
