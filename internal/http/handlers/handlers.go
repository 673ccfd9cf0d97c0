// Package handlers provides HTTP handler implementations for the public API.
//
// Endpoints:
//   - POST /players/{id}/connect      (join or open a game)
//   - POST /players/{id}/disconnect   (leave the active game)
//   - GET  /players/{id}/stats        (lifetime counters)
//   - GET  /games/{id}                (snapshot with derived board)
//   - POST /games/{id}/moves          (play, Idempotency-Key aware)
//   - GET  /games/{id}/feedback       (caller's feedback, paginated)
//
// Handlers are transport-thin: they parse input, call the session services
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tictactoe-backend/internal/board"
	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/http/middleware"
	"github.com/tbourn/go-tictactoe-backend/internal/services"
	"github.com/tbourn/go-tictactoe-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// Matchmaking pairs arriving players and handles departures.
type Matchmaking interface {
	Connect(ctx context.Context, player string) (*domain.Game, error)
	Disconnect(ctx context.Context, player string) error
}

// Turns applies moves.
type Turns interface {
	Play(ctx context.Context, gameID uint32, player string, position int) (*services.PlayOutcome, error)
}

// Games serves game snapshots.
type Games interface {
	Snapshot(ctx context.Context, gameID uint32) (*services.Snapshot, error)
}

// FeedbackReader lists persisted feedback addressed to a player.
type FeedbackReader interface {
	ListPage(ctx context.Context, gameID uint32, player string, page, pageSize int) ([]domain.Feedback, int64, error)
}

// StatsReader returns a player's counters.
type StatsReader interface {
	Get(ctx context.Context, player string) (*domain.PlayerStats, error)
}

// IdempotencyStore remembers processed move submissions so retries with the
// same Idempotency-Key are replayed instead of re-executed.
type IdempotencyStore interface {
	Remember(ctx context.Context, player string, gameID uint32, key string, status int) error
}

//
// Handler wiring
//

// Deps bundles the services the handlers call. Idem may be nil.
type Deps struct {
	Match    Matchmaking
	Turns    Turns
	Games    Games
	Feedback FeedbackReader
	Stats    StatsReader
	Idem     IdempotencyStore
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	d Deps
}

// New returns Handlers bound to d.
func New(d Deps) *Handlers {
	return &Handlers{d: d}
}

// playerID returns the identity resolved by middleware.PlayerIdentity, falling
// back to the raw header so handlers work without the middleware in tests.
func playerID(c *gin.Context) string {
	if p := middleware.PlayerFrom(c); p != "" {
		return p
	}
	if c.Request != nil {
		return strings.TrimSpace(c.GetHeader(middleware.HeaderPlayerID))
	}
	return ""
}

// gameID parses the :id path parameter.
func gameID(c *gin.Context) (uint32, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint32(n), true
}

//
// DTOs
//

// GameView is the public shape of a game.
type GameView struct {
	ID     uint32    `json:"id" example:"7"`
	P1     string    `json:"p1" example:"alice"`
	P2     string    `json:"p2" example:"bob"`
	Result string    `json:"result" example:"ongoing"`
	Ready1 bool      `json:"ready1"`
	Ready2 bool      `json:"ready2"`
	When   time.Time `json:"when"`
	// Board lists the nine cells row-major as "X", "O" or ".".
	Board []string `json:"board" example:"X,.,.,.,O,.,.,.,."`
	Moves int      `json:"moves" example:"2"`
	// NextPlayer is whose turn it is; empty unless the game is ongoing.
	NextPlayer string `json:"next_player,omitempty" example:"alice"`
}

func newGameView(g domain.Game, b board.Board, moves int) GameView {
	v := GameView{
		ID:     g.ID,
		P1:     g.P1,
		P2:     g.P2,
		Result: g.Result.String(),
		Ready1: g.Ready1,
		Ready2: g.Ready2,
		When:   g.When,
		Board:  b.Cells(),
		Moves:  moves,
	}
	if g.Result == domain.ResultOngoing {
		v.NextPlayer = g.P1
		if moves%2 == 1 {
			v.NextPlayer = g.P2
		}
	}
	return v
}

// PlayRequest is the JSON payload of a move submission.
type PlayRequest struct {
	// Position is the cell index 0..8, row-major. Out-of-range values are
	// answered with feedback, not a 400.
	Position *int `json:"position" binding:"required" example:"4"`
}

// PlayResponse reports what happened to a move submission.
type PlayResponse struct {
	Accepted bool `json:"accepted"`
	// Reason names the rule that rejected the move, when rejected.
	Reason string `json:"reason,omitempty" example:"not_your_turn"`
	// Replayed is true when an earlier request with the same Idempotency-Key
	// already applied this move.
	Replayed bool `json:"replayed,omitempty"`
	// Feedback holds the messages addressed to the caller, in order.
	Feedback []string  `json:"feedback"`
	Game     *GameView `json:"game,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListFeedbackResponse wraps a page of feedback.
type ListFeedbackResponse struct {
	Feedback   []domain.Feedback `json:"feedback"`
	Pagination Pagination        `json:"pagination"`
}

// clampPagination parses page and page_size, bounding the size to
// [1, utils.MaxPageSize].
func clampPagination(c *gin.Context) utils.Page {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"))
}
