// Package services – feedback channel
//
// Feedback is the one-way message stream from the engine to players. Every
// message is composed from a fixed catalog (English source strings with a
// Spanish translation registered through golang.org/x/text/message), stored
// as a domain.Feedback row inside the caller's transaction, and pushed to a
// Notifier only after that transaction commits.
package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
	"github.com/tbourn/go-tictactoe-backend/internal/utils"
)

// Catalog keys. The English text doubles as the key.
const (
	MsgStartFirst   = "Game starting! You play first with the Xs."
	MsgStartSecond  = "Game starting! Opponent plays first. You play the Os."
	MsgWaiting      = "Waiting for an opponent to join..."
	MsgOpponentLeft = "other player left"
	MsgGameNotFound = "Game not found! Must have ended?"
	MsgNotYourTurn  = "not your turn!"
	MsgFullBoard    = "trying to play on a full board!"
	MsgOccupied     = "trying to play on a non-empty cell!"
	MsgValidMoveX   = "Valid move from X!"
	MsgValidMoveO   = "Valid move from O!"
	MsgYouWon       = "you won!"
	MsgYouLost      = "you lost!"
	MsgTie          = "the game is a tie."
	MsgGameOver     = "the game is already over."
	MsgNotStarted   = "waiting for an opponent to join before playing."
	MsgOutOfRange   = "position out of range!"
)

var spanish = map[string]string{
	MsgStartFirst:   "¡La partida comienza! Juegas primero con las X.",
	MsgStartSecond:  "¡La partida comienza! El oponente juega primero. Juegas con las O.",
	MsgWaiting:      "Esperando a que se una un oponente...",
	MsgOpponentLeft: "el otro jugador se fue",
	MsgGameNotFound: "¡Partida no encontrada! ¿Habrá terminado?",
	MsgNotYourTurn:  "¡no es tu turno!",
	MsgFullBoard:    "¡intentas jugar en un tablero lleno!",
	MsgOccupied:     "¡intentas jugar en una casilla ocupada!",
	MsgValidMoveX:   "¡Movimiento válido de X!",
	MsgValidMoveO:   "¡Movimiento válido de O!",
	MsgYouWon:       "¡ganaste!",
	MsgYouLost:      "¡perdiste!",
	MsgTie:          "la partida terminó en empate.",
	MsgGameOver:     "la partida ya terminó.",
	MsgNotStarted:   "esperando a un oponente antes de jugar.",
	MsgOutOfRange:   "¡posición fuera de rango!",
}

var supportedLocales = language.NewMatcher([]language.Tag{language.English, language.Spanish})

func init() {
	for key, text := range spanish {
		_ = message.SetString(language.Spanish, key, text)
	}
}

// Composer renders catalog keys in one locale.
type Composer struct {
	p   *message.Printer
	tag language.Tag
}

// NewComposer returns a Composer for locale (e.g. "en", "es-MX"). Unknown or
// empty locales fall back to English.
func NewComposer(locale string) *Composer {
	tag := language.English
	if loc := strings.TrimSpace(locale); loc != "" {
		if parsed, err := language.Parse(loc); err == nil {
			_, idx, _ := supportedLocales.Match(parsed)
			tag = []language.Tag{language.English, language.Spanish}[idx]
		}
	}
	return &Composer{p: message.NewPrinter(tag), tag: tag}
}

// Locale reports the language the composer renders.
func (c *Composer) Locale() language.Tag {
	if c == nil {
		return language.English
	}
	return c.tag
}

// Text renders key. A nil Composer renders English.
func (c *Composer) Text(key string) string {
	if c == nil {
		return key
	}
	return c.p.Sprintf(key)
}

// Notifier pushes committed feedback to connected players. Deliver must not
// block; delivery is best effort.
type Notifier interface {
	Deliver(fb domain.Feedback)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(fb domain.Feedback)

// Deliver calls f(fb).
func (f NotifierFunc) Deliver(fb domain.Feedback) { f(fb) }

// outbox collects the feedback produced by one transaction. Rows written with
// give are persisted through tx; tell queues a live-only message for games
// that have no row to hang feedback on.
type outbox struct {
	msgs  *Composer
	now   time.Time
	items []domain.Feedback
}

func newOutbox(msgs *Composer, now time.Time) *outbox {
	return &outbox{msgs: msgs, now: now.UTC()}
}

func (o *outbox) give(ctx context.Context, tx *gorm.DB, gameID uint32, player, key string) error {
	if player == domain.NoPlayer {
		return nil
	}
	fb, err := repo.CreateFeedback(ctx, tx, gameID, player, o.msgs.Text(key), o.now)
	if err != nil {
		return err
	}
	o.items = append(o.items, *fb)
	return nil
}

func (o *outbox) tell(gameID uint32, player, key string) {
	o.items = append(o.items, domain.Feedback{
		GameID:   gameID,
		PlayerID: player,
		When:     o.now,
		Message:  o.msgs.Text(key),
	})
}

// flush hands every collected message to n. Call only after commit.
func (o *outbox) flush(n Notifier) {
	if n == nil {
		return
	}
	for _, fb := range o.items {
		n.Deliver(fb)
	}
}

// FeedbackService serves the read side of the feedback channel.
type FeedbackService struct {
	DB *gorm.DB
}

// ListPage returns a page of the feedback addressed to player in gameID,
// oldest first, together with the total count.
func (s *FeedbackService) ListPage(ctx context.Context, gameID uint32, player string, page, pageSize int) ([]domain.Feedback, int64, error) {
	if strings.TrimSpace(player) == "" {
		return nil, 0, ErrPlayerRequired
	}
	p := utils.NewPage(page, pageSize)
	total, err := repo.CountFeedback(ctx, s.DB, gameID, player)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListFeedbackPage(ctx, s.DB, gameID, player, p.Offset(), p.Size)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
