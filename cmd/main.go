package main

import (
	"os"

	"github.com/graphaura/graphaura/cmd/graphaura"
)

func main() {
	if err := graphaura.Execute(); err != nil {
		os.Exit(1)
	}
}
