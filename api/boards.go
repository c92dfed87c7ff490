package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func createBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req boardRequest
		if err := decodeJSON(c, &req); err != nil {
			return err
		}
		board, err := boards.Create(c.Request().Context(), callerID(c), req.input())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, board)
	}
}

func listBoards(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		opts, err := listOptions(c, defaultBoardLimit)
		if err != nil {
			return err
		}
		out, err := boards.List(c.Request().Context(), callerID(c), opts)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, out)
	}
}

func getBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "board_id")
		if err != nil {
			return err
		}
		board, err := boards.Get(c.Request().Context(), callerID(c), boardID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, board)
	}
}

func updateBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "board_id")
		if err != nil {
			return err
		}
		var req boardRequest
		if err := decodeJSON(c, &req); err != nil {
			return err
		}
		board, err := boards.Update(c.Request().Context(), callerID(c), boardID, req.input())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, board)
	}
}

func deleteBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "board_id")
		if err != nil {
			return err
		}
		if err := boards.Delete(c.Request().Context(), callerID(c), boardID); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
