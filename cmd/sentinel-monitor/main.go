package main

import (
	"github.com/joho/godotenv"

	"github.com/andrewdarr/bt-sentinel/cmd/sentinel-monitor/cmd"
)

func main() {
	// Optional .env for site-specific settings like SMTP credentials.
	_ = godotenv.Load()

	cmd.Execute()
}
