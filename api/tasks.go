package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

func createTask(tasks TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "board_id")
		if err != nil {
			return err
		}
		var req taskCreateRequest
		if err := decodeJSON(c, &req); err != nil {
			return err
		}
		task, err := tasks.Create(c.Request().Context(), callerID(c), boardID, req.input())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func listTasks(tasks TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "board_id")
		if err != nil {
			return err
		}
		opts, err := listOptions(c, defaultTaskLimit)
		if err != nil {
			return err
		}
		out, err := tasks.List(c.Request().Context(), callerID(c), boardID, opts)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, out)
	}
}

func getTask(tasks TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, taskID, err := taskPath(c)
		if err != nil {
			return err
		}
		task, err := tasks.Get(c.Request().Context(), callerID(c), boardID, taskID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, task)
	}
}

// updateTask serves both PUT and PATCH; only fields present in the body change.
func updateTask(tasks TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, taskID, err := taskPath(c)
		if err != nil {
			return err
		}
		var patch domain.TaskPatch
		if err := decodeJSON(c, &patch); err != nil {
			return err
		}
		task, err := tasks.Update(c.Request().Context(), callerID(c), boardID, taskID, patch)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(tasks TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, taskID, err := taskPath(c)
		if err != nil {
			return err
		}
		if err := tasks.Delete(c.Request().Context(), callerID(c), boardID, taskID); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func taskPath(c echo.Context) (int64, int64, error) {
	boardID, err := pathID(c, "board_id")
	if err != nil {
		return 0, 0, err
	}
	taskID, err := pathID(c, "task_id")
	if err != nil {
		return 0, 0, err
	}
	return boardID, taskID, nil
}
