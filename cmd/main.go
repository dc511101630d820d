package main

import (
	"os"

	"github.com/soundprediction/estratto/cmd/estratto"
)

func main() {
	if err := estratto.Execute(); err != nil {
		os.Exit(1)
	}
}
