// Command tictactoe runs the tic-tac-toe session server and its maintenance
// commands.
package main

import (
	"os"

	"github.com/tbourn/go-tictactoe-backend/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
