package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/AI-et-al/janus/internal/cli"
)

func main() {
	// Optional; API keys may also come from the real environment or the
	// config file.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
