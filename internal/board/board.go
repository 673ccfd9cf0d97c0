// Package board derives the 3×3 tic-tac-toe board from a game's move log and
// evaluates outcomes over it.
//
// The board is never persisted. FromMoves rebuilds it from the ordered moves
// of a game, assigning marks purely by move parity: the i-th move (0-indexed)
// is an X when i is even and an O otherwise. Turn order is enforced by the
// turn engine, so parity alone determines the mark.
//
// Cell layout:
//
//	0 | 1 | 2
//	3 | 4 | 5
//	6 | 7 | 8
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
)

// Size is the number of cells on the board.
const Size = 9

// Mark is the content of a cell.
type Mark uint8

const (
	Empty Mark = iota
	X          // player one
	O          // player two
)

// String renders the mark as "X", "O" or "." for an empty cell.
func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "."
	}
}

// Board is a row-major 3×3 grid.
type Board [Size]Mark

// ErrCorrupt reports a move log that cannot have been produced by the turn
// engine: a position played twice or outside 0..8.
var ErrCorrupt = errors.New("board: inconsistent move log")

// lines lists the 8 winning lines: rows, columns, diagonals.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// MarkForMove returns the mark of the i-th accepted move of a game.
func MarkForMove(i int) Mark {
	if i%2 == 0 {
		return X
	}
	return O
}

// FromMoves rebuilds the board from moves given in creation order.
// The PlayerID recorded on each move is ignored.
func FromMoves(moves []domain.GameMove) (Board, error) {
	var b Board
	for i, mv := range moves {
		p := int(mv.Position)
		if p >= Size {
			return b, fmt.Errorf("%w: move %d has position %d", ErrCorrupt, mv.ID, p)
		}
		if b[p] != Empty {
			return b, fmt.Errorf("%w: position %d played twice (move %d)", ErrCorrupt, p, mv.ID)
		}
		b[p] = MarkForMove(i)
	}
	return b, nil
}

// FilledCount returns the number of non-empty cells, 0 to 9.
func FilledCount(b Board) int {
	n := 0
	for _, m := range b {
		if m != Empty {
			n++
		}
	}
	return n
}

// IsFull reports whether every cell is taken.
func IsFull(b Board) bool { return FilledCount(b) == Size }

// HasWon reports whether any line is uniformly m.
func HasWon(b Board, m Mark) bool {
	if m == Empty {
		return false
	}
	for _, l := range lines {
		if b[l[0]] == m && b[l[1]] == m && b[l[2]] == m {
			return true
		}
	}
	return false
}

// NextMark returns the mark whose turn it is: X when the filled count is
// even, O otherwise.
func NextMark(b Board) Mark {
	return MarkForMove(FilledCount(b))
}

// Cells returns the board as strings ("X", "O", "") for JSON responses.
func (b Board) Cells() []string {
	out := make([]string, Size)
	for i, m := range b {
		if m != Empty {
			out[i] = m.String()
		}
	}
	return out
}

// String renders the board as three rows separated by '/', e.g. "XX./.O./...".
func (b Board) String() string {
	var sb strings.Builder
	for i, m := range b {
		if i > 0 && i%3 == 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}
