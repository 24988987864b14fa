package main

import (
	"os"

	"github.com/maorbril/recently/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
