package main

import (
	"log"

	"github.com/cwbudde/pixelfind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}
