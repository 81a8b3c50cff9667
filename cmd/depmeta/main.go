package main

import (
	"os"

	"github.com/git-pkgs/depmeta/cmd/depmeta/commands"
)

func main() {
	os.Exit(commands.Execute())
}
