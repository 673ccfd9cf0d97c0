// Game HTTP handlers: snapshots and move submission.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tictactoe-backend/internal/board"
	"github.com/tbourn/go-tictactoe-backend/internal/http/middleware"
	"github.com/tbourn/go-tictactoe-backend/internal/services"
)

// GetGame godoc
// @ID          getGame
// @Summary     Get a game
// @Description Returns the game with its board rebuilt from the move log.
// @Tags        Games
// @Produce     json
//
// @Param       id   path  int  true  "Game ID"  minimum(1) example(7)
//
// @Success     200  {object} handlers.GameView
// @Failure     400  {object} handlers.ErrorResponse "Invalid game id"
// @Failure     404  {object} handlers.ErrorResponse "Game not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /games/{id} [get]
func (h *Handlers) GetGame(c *gin.Context) {
	id, valid := gameID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeInvalidGameID, "game id must be a positive integer")
		return
	}
	snap, err := h.d.Games.Snapshot(c.Request.Context(), id)
	if err != nil {
		h.failSnapshot(c, err)
		return
	}
	ok(c, http.StatusOK, newGameView(snap.Game, snap.Board, snap.Moves))
}

// PlayMove godoc
// @ID          playMove
// @Summary     Play a move
// @Description Places the caller's mark. Rule violations are not HTTP errors:
// @Description the response has accepted=false, the reason and the feedback
// @Description sent to the caller. A retry carrying an Idempotency-Key that
// @Description already succeeded returns the current game with replayed=true.
// @Tags        Games
// @Accept      json
// @Produce     json
//
// @Param       X-Player-ID      header  string  true  "Acting player"          example(alice)
// @Param       Idempotency-Key  header  string  false "Retry-safe submission"  example(move-7-3)
// @Param       id               path    int     true  "Game ID"                minimum(1) example(7)
// @Param       body             body    handlers.PlayRequest true "Move"
//
// @Success     200  {object} handlers.PlayResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload or missing player"
// @Failure     404  {object} handlers.ErrorResponse "Game not found (replay only)"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /games/{id}/moves [post]
func (h *Handlers) PlayMove(c *gin.Context) {
	id, valid := gameID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeInvalidGameID, "game id must be a positive integer")
		return
	}
	player := playerID(c)
	if player == "" {
		fail(c, http.StatusBadRequest, ErrCodePlayerRequired, "X-Player-ID header is required")
		return
	}
	ctx := c.Request.Context()

	if middleware.IsReplay(c) {
		snap, err := h.d.Games.Snapshot(ctx, id)
		if err != nil {
			h.failSnapshot(c, err)
			return
		}
		view := newGameView(snap.Game, snap.Board, snap.Moves)
		ok(c, http.StatusOK, PlayResponse{Accepted: true, Replayed: true, Feedback: []string{}, Game: &view})
		return
	}

	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "position is required")
		return
	}

	out, err := h.d.Turns.Play(ctx, id, player, *req.Position)
	switch {
	case errors.Is(err, services.ErrPlayerRequired):
		fail(c, http.StatusBadRequest, ErrCodePlayerRequired, err.Error())
		return
	case errors.Is(err, board.ErrCorrupt):
		fail(c, http.StatusInternalServerError, ErrCodeCorruptGame, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodePlayFailed, err.Error())
		return
	}

	resp := PlayResponse{Accepted: out.Accepted, Reason: out.Reason, Feedback: []string{}}
	for _, fb := range out.Feedback {
		if fb.PlayerID == player {
			resp.Feedback = append(resp.Feedback, fb.Message)
		}
	}
	if out.Game != nil {
		view := newGameView(*out.Game, out.Board, board.FilledCount(out.Board))
		resp.Game = &view
	}

	if key, has := middleware.GetIdempotencyKey(c); has && out.Accepted && h.d.Idem != nil {
		if err := h.d.Idem.Remember(ctx, player, id, key, http.StatusOK); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
		}
	}
	ok(c, http.StatusOK, resp)
}

func (h *Handlers) failSnapshot(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGameNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "game not found")
	case errors.Is(err, board.ErrCorrupt):
		fail(c, http.StatusInternalServerError, ErrCodeCorruptGame, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
