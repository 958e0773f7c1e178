package main

import (
	"os"

	"jukebox/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
