package main

import (
	"github.com/joho/godotenv"

	"github.com/andrewdarr/bt-sentinel/cmd/sentinel-daemon/cmd"
)

func main() {
	// Optional .env for site-specific settings.
	_ = godotenv.Load()

	cmd.Execute()
}
