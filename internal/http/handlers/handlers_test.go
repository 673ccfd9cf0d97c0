package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-tictactoe-backend/internal/http/middleware"
	"github.com/tbourn/go-tictactoe-backend/internal/repo"
	"github.com/tbourn/go-tictactoe-backend/internal/services"
)

// ---------- test DB + full service stack ----------

func newGameDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:game_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// memIdem is an in-memory IdempotencyStore.
type memIdem struct {
	mu   sync.Mutex
	keys map[string]int
}

func (m *memIdem) k(player string, gameID uint32, key string) string {
	return fmt.Sprintf("%s|%d|%s", player, gameID, key)
}

func (m *memIdem) Remember(_ context.Context, player string, gameID uint32, key string, status int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[m.k(player, gameID, key)] = status
	return nil
}

func (m *memIdem) lookup(_ context.Context, player string, gameID uint32, key string, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[m.k(player, gameID, key)]
	return ok, nil
}

type stack struct {
	r    *gin.Engine
	db   *gorm.DB
	idem *memIdem
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newGameDB(t)
	tx := repo.NewSerializer(db)
	cl, err := services.NewCleanupScheduler(tx, time.Hour)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	t.Cleanup(func() { _ = cl.Shutdown() })

	stats := &services.StatsAggregator{DB: db}
	msgs := services.NewComposer("en")
	idem := &memIdem{keys: map[string]int{}}
	h := New(Deps{
		Match:    &services.Matchmaker{Tx: tx, Stats: stats, Cleanup: cl, Messages: msgs},
		Turns:    &services.TurnEngine{Tx: tx, Stats: stats, Cleanup: cl, Messages: msgs},
		Games:    &services.GameReader{DB: db},
		Feedback: &services.FeedbackService{DB: db},
		Stats:    stats,
		Idem:     idem,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.PlayerIdentity("id"), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idem.lookup))
	r.POST("/players/:id/connect", h.Connect)
	r.POST("/players/:id/disconnect", h.Disconnect)
	r.GET("/players/:id/stats", h.GetStats)
	r.GET("/games/:id", h.GetGame)
	r.POST("/games/:id/moves", h.PlayMove)
	r.GET("/games/:id/feedback", h.ListFeedback)
	return &stack{r: r, db: db, idem: idem}
}

type call struct {
	method, path, player, idemKey, inm string
	body                               any
}

func (s *stack) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(c.method, c.path, rd)
	req.Header.Set("Content-Type", "application/json")
	if c.player != "" {
		req.Header.Set(middleware.HeaderPlayerID, c.player)
	}
	if c.idemKey != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, c.idemKey)
	}
	if c.inm != "" {
		req.Header.Set("If-None-Match", c.inm)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func (s *stack) connect(t *testing.T, player string) GameView {
	t.Helper()
	w := s.do(t, call{method: http.MethodPost, path: "/players/" + player + "/connect"})
	if w.Code != http.StatusOK {
		t.Fatalf("connect %s: %d %s", player, w.Code, w.Body.String())
	}
	return decode[GameView](t, w)
}

func (s *stack) play(t *testing.T, gameID uint32, player string, pos int) PlayResponse {
	t.Helper()
	w := s.do(t, call{
		method: http.MethodPost,
		path:   fmt.Sprintf("/games/%d/moves", gameID),
		player: player,
		body:   map[string]int{"position": pos},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("play %s@%d: %d %s", player, pos, w.Code, w.Body.String())
	}
	return decode[PlayResponse](t, w)
}

// ---------- tests ----------

func TestConnect_WaitThenPair(t *testing.T) {
	s := newStack(t)

	g1 := s.connect(t, "alice")
	if g1.Result != "unstarted" || g1.P1 != "alice" || g1.P2 != "" || !g1.Ready1 {
		t.Fatalf("unexpected waiting game: %+v", g1)
	}
	if g1.NextPlayer != "" || len(g1.Board) != 9 {
		t.Fatalf("waiting game view wrong: %+v", g1)
	}

	g2 := s.connect(t, "bob")
	if g2.ID != g1.ID || g2.Result != "ongoing" || g2.P2 != "bob" || !g2.Ready2 {
		t.Fatalf("unexpected paired game: %+v", g2)
	}
	if g2.NextPlayer != "alice" {
		t.Fatalf("P1 should move first, got %q", g2.NextPlayer)
	}
}

func TestPlayMove_AcceptRejectAndFinish(t *testing.T) {
	s := newStack(t)
	s.connect(t, "alice")
	g := s.connect(t, "bob")

	first := s.play(t, g.ID, "alice", 0)
	if !first.Accepted || first.Game == nil || first.Game.Board[0] != "X" || first.Game.NextPlayer != "bob" {
		t.Fatalf("first move: %+v", first)
	}
	if len(first.Feedback) != 1 || first.Feedback[0] != services.MsgValidMoveX {
		t.Fatalf("first move feedback: %v", first.Feedback)
	}

	wrong := s.play(t, g.ID, "alice", 1)
	if wrong.Accepted || wrong.Reason != services.ReasonNotYourTurn {
		t.Fatalf("expected not_your_turn, got %+v", wrong)
	}
	if len(wrong.Feedback) != 1 || wrong.Feedback[0] != services.MsgNotYourTurn {
		t.Fatalf("wrong-turn feedback: %v", wrong.Feedback)
	}

	occupied := s.play(t, g.ID, "bob", 0)
	if occupied.Accepted || occupied.Reason != services.ReasonOccupied {
		t.Fatalf("expected occupied, got %+v", occupied)
	}

	s.play(t, g.ID, "bob", 3)
	s.play(t, g.ID, "alice", 1)
	s.play(t, g.ID, "bob", 4)
	win := s.play(t, g.ID, "alice", 2)
	if !win.Accepted || win.Game.Result != "p1_won" || win.Game.NextPlayer != "" {
		t.Fatalf("winning move: %+v", win)
	}
	if len(win.Feedback) != 2 || win.Feedback[1] != services.MsgYouWon {
		t.Fatalf("winner feedback: %v", win.Feedback)
	}

	w := s.do(t, call{method: http.MethodGet, path: "/players/alice/stats"})
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	if st := decode[map[string]any](t, w); st["wins"].(float64) != 1 {
		t.Fatalf("alice stats: %v", st)
	}
}

func TestPlayMove_UnknownGameIsFeedbackNotError(t *testing.T) {
	s := newStack(t)
	out := s.play(t, 999, "alice", 0)
	if out.Accepted || out.Reason != services.ReasonGameNotFound || out.Game != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(out.Feedback) != 1 || out.Feedback[0] != services.MsgGameNotFound {
		t.Fatalf("feedback: %v", out.Feedback)
	}
}

func TestPlayMove_BadInput(t *testing.T) {
	s := newStack(t)

	cases := []struct {
		name string
		c    call
		code string
	}{
		{"bad id", call{method: http.MethodPost, path: "/games/abc/moves", player: "alice", body: map[string]int{"position": 0}}, ErrCodeInvalidGameID},
		{"zero id", call{method: http.MethodPost, path: "/games/0/moves", player: "alice", body: map[string]int{"position": 0}}, ErrCodeInvalidGameID},
		{"no player", call{method: http.MethodPost, path: "/games/1/moves", body: map[string]int{"position": 0}}, ErrCodePlayerRequired},
		{"no position", call{method: http.MethodPost, path: "/games/1/moves", player: "alice", body: map[string]string{}}, ErrCodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, tc.c)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if er := decode[ErrorResponse](t, w); er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
		})
	}
}

func TestPlayMove_IdempotentRetry(t *testing.T) {
	s := newStack(t)
	s.connect(t, "alice")
	g := s.connect(t, "bob")

	send := func() PlayResponse {
		w := s.do(t, call{
			method:  http.MethodPost,
			path:    fmt.Sprintf("/games/%d/moves", g.ID),
			player:  "alice",
			idemKey: "move-1",
			body:    map[string]int{"position": 4},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d %s", w.Code, w.Body.String())
		}
		return decode[PlayResponse](t, w)
	}

	first := send()
	if !first.Accepted || first.Replayed {
		t.Fatalf("first submission: %+v", first)
	}
	retry := send()
	if !retry.Accepted || !retry.Replayed || retry.Game == nil || retry.Game.Moves != 1 {
		t.Fatalf("retry should replay without a second move: %+v", retry)
	}

	var moves int64
	s.db.Table("game_moves").Where("game_id = ?", g.ID).Count(&moves)
	if moves != 1 {
		t.Fatalf("moves stored = %d, want 1", moves)
	}
}

func TestPlayMove_RejectedMoveIsNotRemembered(t *testing.T) {
	s := newStack(t)
	s.connect(t, "alice")
	g := s.connect(t, "bob")

	w := s.do(t, call{
		method:  http.MethodPost,
		path:    fmt.Sprintf("/games/%d/moves", g.ID),
		player:  "bob",
		idemKey: "k",
		body:    map[string]int{"position": 0},
	})
	if out := decode[PlayResponse](t, w); out.Accepted {
		t.Fatalf("bob cannot move first: %+v", out)
	}
	if len(s.idem.keys) != 0 {
		t.Fatalf("rejected move stored an idempotency record: %v", s.idem.keys)
	}
}

func TestGetGame(t *testing.T) {
	s := newStack(t)
	s.connect(t, "alice")
	g := s.connect(t, "bob")
	s.play(t, g.ID, "alice", 4)

	w := s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/games/%d", g.ID)})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	v := decode[GameView](t, w)
	if strings.Join(v.Board, "") != "....X...." || v.Moves != 1 || v.NextPlayer != "bob" {
		t.Fatalf("unexpected view: %+v", v)
	}

	w = s.do(t, call{method: http.MethodGet, path: "/games/4242"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing game: %d", w.Code)
	}
	w = s.do(t, call{method: http.MethodGet, path: "/games/-1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative id: %d", w.Code)
	}
}

func TestDisconnect_AbandonsAndNotifies(t *testing.T) {
	s := newStack(t)
	s.connect(t, "alice")
	g := s.connect(t, "bob")

	w := s.do(t, call{method: http.MethodPost, path: "/players/alice/disconnect"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("disconnect: %d %s", w.Code, w.Body.String())
	}
	// A second disconnect has nothing to leave.
	w = s.do(t, call{method: http.MethodPost, path: "/players/alice/disconnect"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("repeat disconnect: %d", w.Code)
	}

	w = s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/games/%d", g.ID)})
	if v := decode[GameView](t, w); v.Result != "abandoned" || v.Ready1 {
		t.Fatalf("game after departure: %+v", v)
	}

	w = s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/games/%d/feedback", g.ID), player: "bob"})
	list := decode[ListFeedbackResponse](t, w)
	last := list.Feedback[len(list.Feedback)-1]
	if last.Message != services.MsgOpponentLeft {
		t.Fatalf("bob's last feedback = %q", last.Message)
	}

	w = s.do(t, call{method: http.MethodGet, path: "/players/alice/stats"})
	if st := decode[map[string]any](t, w); st["early_departures"].(float64) != 1 {
		t.Fatalf("alice stats: %v", st)
	}
}

func TestListFeedback_PaginationAndETag(t *testing.T) {
	s := newStack(t)
	s.connect(t, "alice")
	g := s.connect(t, "bob")
	s.play(t, g.ID, "alice", 0)
	s.play(t, g.ID, "bob", 1)

	path := fmt.Sprintf("/games/%d/feedback?page=1&page_size=2", g.ID)
	w := s.do(t, call{method: http.MethodGet, path: path, player: "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d %s", w.Code, w.Body.String())
	}
	list := decode[ListFeedbackResponse](t, w)
	// waiting, start, X ack, O ack
	if list.Pagination.Total != 4 || len(list.Feedback) != 2 || !list.Pagination.HasNext || list.Pagination.TotalPages != 2 {
		t.Fatalf("pagination: %+v (%d items)", list.Pagination, len(list.Feedback))
	}
	if list.Feedback[0].Message != services.MsgWaiting || list.Feedback[1].Message != services.MsgStartFirst {
		t.Fatalf("alice's first messages: %+v", list.Feedback)
	}
	for _, fb := range list.Feedback {
		if fb.PlayerID != "alice" {
			t.Fatalf("leaked feedback for %q", fb.PlayerID)
		}
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	w = s.do(t, call{method: http.MethodGet, path: path, player: "alice", inm: etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional GET: %d", w.Code)
	}

	w = s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/games/%d/feedback", g.ID)})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing player: %d", w.Code)
	}
}

func TestGetStats_Unknown(t *testing.T) {
	s := newStack(t)
	w := s.do(t, call{method: http.MethodGet, path: "/players/ghost/stats"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		q        string
		page, sz int
	}{
		{"", 1, 20},
		{"page=0&page_size=0", 1, 1},
		{"page=3&page_size=500", 3, 100},
		{"page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.q, nil)
		p := clampPagination(c)
		if p.Number != tc.page || p.Size != tc.sz {
			t.Fatalf("%q: got (%d,%d) want (%d,%d)", tc.q, p.Number, p.Size, tc.page, tc.sz)
		}
	}
}
