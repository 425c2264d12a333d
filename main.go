package main

import (
	"flag"
	"log"

	"yashubustudio/segmenter/internal/app"
)

func main() {
	configPath := flag.String("config", "", "Path to config.json or config.yaml (default: ./config.json)")
	flag.Parse()
	if err := app.Run(*configPath); err != nil {
		log.Fatalf("segmenter: %v", err)
	}
}
