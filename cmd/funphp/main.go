package main

import (
	"os"

	"github.com/funvibe/funphp/pkg/cli"
)

func main() {
	os.Exit(cli.Run())
}
