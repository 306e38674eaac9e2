package main

import (
	"embed"
	"log"

	"github.com/bai0012/audio-toolkit-gui/internal/bootstrap"
)

//go:embed all:frontend
var appAssets embed.FS

func main() {
	app, err := bootstrap.NewWithAssets(appAssets)
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
