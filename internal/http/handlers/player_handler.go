// Player HTTP handlers: arrival, departure and statistics.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tictactoe-backend/internal/board"
	"github.com/tbourn/go-tictactoe-backend/internal/services"
)

// Connect godoc
// @ID          connectPlayer
// @Summary     Connect a player
// @Description Joins the oldest waiting game, or opens a new one when nobody
// @Description is waiting. Start or waiting messages go to the feedback channel.
// @Tags        Players
// @Produce     json
//
// @Param       id   path  string  true  "Player ID"  maxLength(64) example(alice)
//
// @Success     200  {object} handlers.GameView
// @Failure     400  {object} handlers.ErrorResponse "Missing player"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /players/{id}/connect [post]
func (h *Handlers) Connect(c *gin.Context) {
	player := strings.TrimSpace(c.Param("id"))
	g, err := h.d.Match.Connect(c.Request.Context(), player)
	switch {
	case errors.Is(err, services.ErrPlayerRequired):
		fail(c, http.StatusBadRequest, ErrCodePlayerRequired, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeConnectFailed, err.Error())
		return
	}
	// A game just created or just started has no moves yet.
	ok(c, http.StatusOK, newGameView(*g, board.Board{}, 0))
}

// Disconnect godoc
// @ID          disconnectPlayer
// @Summary     Disconnect a player
// @Description Abandons the player's unstarted or ongoing game, notifies the
// @Description opponent and schedules the game for deletion. A player with no
// @Description active game is a no-op.
// @Tags        Players
//
// @Param       id   path  string  true  "Player ID"  maxLength(64) example(alice)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Missing player"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /players/{id}/disconnect [post]
func (h *Handlers) Disconnect(c *gin.Context) {
	player := strings.TrimSpace(c.Param("id"))
	err := h.d.Match.Disconnect(c.Request.Context(), player)
	switch {
	case errors.Is(err, services.ErrPlayerRequired):
		fail(c, http.StatusBadRequest, ErrCodePlayerRequired, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// GetStats godoc
// @ID          getPlayerStats
// @Summary     Get player statistics
// @Tags        Players
// @Produce     json
//
// @Param       id   path  string  true  "Player ID"  maxLength(64) example(alice)
//
// @Success     200  {object} domain.PlayerStats
// @Failure     404  {object} handlers.ErrorResponse "Player never connected"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /players/{id}/stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	st, err := h.d.Stats.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	switch {
	case errors.Is(err, services.ErrStatsNotFound), errors.Is(err, services.ErrPlayerRequired):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "player not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}
