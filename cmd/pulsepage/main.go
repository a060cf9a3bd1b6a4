package main

import (
	"log"

	"github.com/MrSnakeDoc/pulsepage/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ pulsepage failed: %v", err)
	}
}
