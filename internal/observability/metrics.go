package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Game-level collectors. Labels are limited to small closed sets (result
// names, violation reasons) so cardinality stays bounded.
var (
	// GamesCreated counts sessions opened by an unmatched arrival.
	GamesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_games_created_total",
		Help: "Total number of games created for a waiting player.",
	})

	// GamesStarted counts sessions that received their second player.
	GamesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_games_started_total",
		Help: "Total number of games paired and started.",
	})

	// GamesFinished counts terminal transitions by result.
	GamesFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tictactoe_games_finished_total",
		Help: "Total number of games reaching a terminal result.",
	}, []string{"result"})

	// MovesAccepted counts moves appended to a move log.
	MovesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_moves_accepted_total",
		Help: "Total number of legal moves applied.",
	})

	// MovesRejected counts play attempts answered with rule-violation feedback.
	MovesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tictactoe_moves_rejected_total",
		Help: "Total number of play attempts rejected, by reason.",
	}, []string{"reason"})

	// GamesPurged counts cleanup runs that removed a game.
	GamesPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_games_purged_total",
		Help: "Total number of games deleted by the cleanup scheduler.",
	})

	// LiveConnections gauges open websocket player connections.
	LiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tictactoe_live_connections",
		Help: "Current number of connected websocket players.",
	})
)

func init() {
	prometheus.MustRegister(
		GamesCreated,
		GamesStarted,
		GamesFinished,
		MovesAccepted,
		MovesRejected,
		GamesPurged,
		LiveConnections,
	)
}
