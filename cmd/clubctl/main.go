package main

import (
	"github.com/goldenknight/chessclub/internal/cli"
)

func main() {
	cli.Execute()
}
