package main

import (
	"log"

	"github.com/MrSnakeDoc/qrlink/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ qrlink failed to start: %v", err)
	}
}
