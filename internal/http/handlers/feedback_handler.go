// Feedback HTTP handler.
//
// Feedback is pushed live over the websocket transport; this endpoint is the
// polling alternative and serves the persisted copy. Only messages addressed
// to the caller are returned.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tictactoe-backend/internal/services"
)

// ListFeedback godoc
// @ID          listFeedback
// @Summary     List feedback (paginated)
// @Description Returns the caller's feedback for a game, oldest first. Supports
// @Description a weak ETag via If-None-Match and may return 304.
// @Tags        Feedback
// @Produce     json
//
// @Param       X-Player-ID    header  string  true  "Acting player"               example(alice)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"feedback:7:alice:3\")
// @Param       id             path    int     true  "Game ID"                     minimum(1) example(7)
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListFeedbackResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid game id or missing player"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /games/{id}/feedback [get]
func (h *Handlers) ListFeedback(c *gin.Context) {
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
	page := clampPagination(c)

	items, total, err := h.d.Feedback.ListPage(c.Request.Context(), id, player, page.Number, page.Size)
	switch {
	case errors.Is(err, services.ErrPlayerRequired):
		fail(c, http.StatusBadRequest, ErrCodePlayerRequired, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	// Feedback is append-only, so the count identifies the result set.
	etag := fmt.Sprintf(`W/"feedback:%d:%s:%d:%d:%d"`, id, player, total, page.Number, page.Size)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	ok(c, http.StatusOK, ListFeedbackResponse{
		Feedback: items,
		Pagination: Pagination{
			Page:       page.Number,
			PageSize:   page.Size,
			Total:      total,
			TotalPages: page.TotalPages(total),
			HasNext:    page.HasNext(total),
		},
	})
}
