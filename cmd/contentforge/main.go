package main

import (
	"os"

	"contentforge/cmd/handlers"
)

func main() {
	if err := handlers.Execute(); err != nil {
		os.Exit(1)
	}
}
