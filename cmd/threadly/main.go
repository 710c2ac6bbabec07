package main

import (
	"log"

	"github.com/threadly/threadly/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ threadly failed to start: %v", err)
	}
}
